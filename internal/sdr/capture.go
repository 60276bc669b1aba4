package sdr

import "time"

// RawCapture is the immutable result of a receive session: the samples
// collected before the buffer was closed, in arrival order.
type RawCapture struct {
	Samples         []complex64
	SampleRate      float64
	CenterFrequency float64

	// Interrupted is set when the capture ended before its configured duration.
	Interrupted bool
}

// Len returns the number of samples in the capture.
func (c RawCapture) Len() int {
	return len(c.Samples)
}

// Duration returns the time span covered by the samples.
func (c RawCapture) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / c.SampleRate * float64(time.Second))
}

// Slice returns the capture restricted to samples [from, len).
func (c RawCapture) Slice(from int) RawCapture {
	from = max(0, min(from, len(c.Samples)))
	c.Samples = c.Samples[from:]
	return c
}
