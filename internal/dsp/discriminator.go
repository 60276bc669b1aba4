package dsp

import "math/cmplx"

// FMDiscriminate returns the phase difference between consecutive samples,
// arg(s[i+1]·conj(s[i])), in radians. The result has one element less than
// the input and is not scaled to frequency units.
func FMDiscriminate(samples []complex64) []float64 {
	if len(samples) < 2 {
		return []float64{}
	}

	out := make([]float64, len(samples)-1)
	prev := complex128(samples[0])
	for i, s := range samples[1:] {
		cur := complex128(s)
		out[i] = cmplx.Phase(cur * cmplx.Conj(prev))
		prev = cur
	}
	return out
}
