package dsp

import "sync"

// SpectrumVector is the power spectrum of a whole signal, in dB, with the
// absolute frequency of every bin. Index 0 is the lowest frequency.
type SpectrumVector struct {
	Power       []float64
	Frequencies []float64
}

// Peak returns the index of the strongest bin, or -1 for an empty vector.
func (v SpectrumVector) Peak() int {
	peak := -1
	for i, p := range v.Power {
		if peak < 0 || p > v.Power[peak] {
			peak = i
		}
	}
	return peak
}

// PeakIn returns the index of the strongest bin whose frequency lies in
// [lo, hi], or -1 if there is none.
func (v SpectrumVector) PeakIn(lo, hi float64) int {
	peak := -1
	for i, f := range v.Frequencies {
		if f < lo || f > hi {
			continue
		}
		if peak < 0 || v.Power[i] > v.Power[peak] {
			peak = i
		}
	}
	return peak
}

// SpectrumAnalyzer computes single FFT power spectra. Plans are cached by
// length, so analysing many signals of the same length is cheap.
type SpectrumAnalyzer struct {
	mu    sync.Mutex
	plans map[int]transform
}

// NewSpectrumAnalyzer creates an analyzer with an empty plan cache.
func NewSpectrumAnalyzer() *SpectrumAnalyzer {
	return &SpectrumAnalyzer{
		plans: make(map[int]transform),
	}
}

// Analyze transforms all samples at once and returns
// 10·log10(|X|² + Epsilon) with frequencies centred on centerFreq.
func (a *SpectrumAnalyzer) Analyze(samples []complex64, sampleRate, centerFreq float64) (SpectrumVector, error) {
	seq := make([]complex128, len(samples))
	for i, s := range samples {
		seq[i] = complex128(s)
	}
	return a.analyze(seq, sampleRate, centerFreq)
}

// AnalyzeReal is Analyze for a real signal. The full two sided spectrum is
// returned, centred on 0 Hz.
func (a *SpectrumAnalyzer) AnalyzeReal(samples []float64, sampleRate float64) (SpectrumVector, error) {
	seq := make([]complex128, len(samples))
	for i, s := range samples {
		seq[i] = complex(s, 0)
	}
	return a.analyze(seq, sampleRate, 0)
}

func (a *SpectrumAnalyzer) analyze(seq []complex128, sampleRate, centerFreq float64) (SpectrumVector, error) {
	if !(sampleRate > 0) {
		return SpectrumVector{}, invalid("sample rate must be positive: %v given", sampleRate)
	}
	n := len(seq)
	if n == 0 {
		return SpectrumVector{}, &InsufficientDataError{Stage: "spectrum", Have: 0, Need: 1}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	plan, ok := a.plans[n]
	if !ok {
		plan = newTransform(n)
		a.plans[n] = plan
	}
	coeffs := plan.Coefficients(nil, seq)

	power := make([]float64, n)
	for j := range power {
		power[j] = PowerDB(coeffs[shiftIndex(j, n)])
	}

	return SpectrumVector{
		Power:       power,
		Frequencies: CenteredFrequencies(n, sampleRate, centerFreq),
	}, nil
}
