package dsp

import (
	"sync"
	"time"
)

// DefaultFFTSize is the spectrogram frame length.
const DefaultFFTSize = 2048

// SpectrogramMatrix holds one power spectrum per non-overlapping frame, in
// dB, oldest frame first. Each row is shifted so that index 0 is the lowest
// frequency.
type SpectrogramMatrix struct {
	Rows            [][]float64
	FFTSize         int
	SampleRate      float64
	CenterFrequency float64
	Duration        time.Duration // time covered by the input
}

// FrequencyAxis returns the absolute frequency of every column.
func (m SpectrogramMatrix) FrequencyAxis() []float64 {
	return CenteredFrequencies(m.FFTSize, m.SampleRate, m.CenterFrequency)
}

// FrequencyRange returns the half open frequency span [min, max) of a row.
func (m SpectrogramMatrix) FrequencyRange() (float64, float64) {
	lo := m.CenterFrequency - float64(m.FFTSize/2)*m.SampleRate/float64(m.FFTSize)
	return lo, lo + m.SampleRate
}

// TimeAxis returns the start time of every row, in seconds.
func (m SpectrogramMatrix) TimeAxis() []float64 {
	axis := make([]float64, len(m.Rows))
	for i := range axis {
		axis[i] = float64(i*m.FFTSize) / m.SampleRate
	}
	return axis
}

// SpectrogramEngine frames a signal into consecutive blocks of FFTSize
// samples and computes the power spectrum of each block. The FFT plan is
// created once and reused.
type SpectrogramEngine struct {
	mu      sync.Mutex
	fftSize int
	plan    transform
	frame   []complex128
	coeffs  []complex128
}

// NewSpectrogramEngine creates an engine for frames of fftSize samples.
func NewSpectrogramEngine(fftSize int) (*SpectrogramEngine, error) {
	if fftSize < 1 {
		return nil, invalid("fft size must be positive: %d given", fftSize)
	}

	return &SpectrogramEngine{
		fftSize: fftSize,
		plan:    newTransform(fftSize),
		frame:   make([]complex128, fftSize),
		coeffs:  make([]complex128, fftSize),
	}, nil
}

// FFTSize returns the frame length.
func (e *SpectrogramEngine) FFTSize() int {
	return e.fftSize
}

// Compute returns floor(len(samples)/FFTSize) rows of
// 10·log10(|FFT(frame)|² + Epsilon). Trailing samples that do not fill a
// frame are discarded, never padded.
func (e *SpectrogramEngine) Compute(samples []complex64, sampleRate, centerFreq float64) (SpectrogramMatrix, error) {
	return e.compute(len(samples), sampleRate, centerFreq, func(i int) complex128 {
		return complex128(samples[i])
	})
}

// ComputeReal is Compute for a real signal, such as a demodulated one. The
// frequency axis is centred on 0 Hz.
func (e *SpectrogramEngine) ComputeReal(samples []float64, sampleRate float64) (SpectrogramMatrix, error) {
	return e.compute(len(samples), sampleRate, 0, func(i int) complex128 {
		return complex(samples[i], 0)
	})
}

func (e *SpectrogramEngine) compute(n int, sampleRate, centerFreq float64, at func(i int) complex128) (SpectrogramMatrix, error) {
	if !(sampleRate > 0) {
		return SpectrogramMatrix{}, invalid("sample rate must be positive: %v given", sampleRate)
	}
	if n < e.fftSize {
		return SpectrogramMatrix{}, &InsufficientDataError{Stage: "spectrogram", Have: n, Need: e.fftSize}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rows := n / e.fftSize
	data := make([]float64, rows*e.fftSize)
	matrix := SpectrogramMatrix{
		Rows:            make([][]float64, rows),
		FFTSize:         e.fftSize,
		SampleRate:      sampleRate,
		CenterFrequency: centerFreq,
		Duration:        time.Duration(float64(n) / sampleRate * float64(time.Second)),
	}

	for r := range matrix.Rows {
		offset := r * e.fftSize
		for i := range e.frame {
			e.frame[i] = at(offset + i)
		}

		e.plan.Coefficients(e.coeffs, e.frame)

		row := data[offset : offset+e.fftSize : offset+e.fftSize]
		for j := range row {
			row[j] = PowerDB(e.coeffs[shiftIndex(j, e.fftSize)])
		}
		matrix.Rows[r] = row
	}

	return matrix, nil
}
