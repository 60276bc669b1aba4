package dsp

import "math"

// BandpassTaps designs a linear phase FIR bandpass filter by the window
// method with a Hamming window, scaled for unity gain at the centre of the
// passband. The design matches scipy.signal.firwin with pass_zero=False.
func BandpassTaps(numTaps int, low, high, sampleRate float64) ([]float64, error) {
	if numTaps < 1 {
		return nil, invalid("number of taps must be positive: %d given", numTaps)
	}
	if !(sampleRate > 0) {
		return nil, invalid("sample rate must be positive: %v given", sampleRate)
	}

	nyquist := sampleRate / 2
	if !(low > 0 && low < high && high < nyquist) {
		return nil, invalid("passband must satisfy 0 < low < high < %v: [%v, %v] given", nyquist, low, high)
	}

	left := low / nyquist
	right := high / nyquist
	alpha := float64(numTaps-1) / 2
	window := Hamming(numTaps)

	taps := make([]float64, numTaps)
	for i := range taps {
		m := float64(i) - alpha
		taps[i] = (right*sinc(right*m) - left*sinc(left*m)) * window[i]
	}

	centre := (left + right) / 2
	var gain float64
	for i, h := range taps {
		gain += h * math.Cos(math.Pi*(float64(i)-alpha)*centre)
	}
	for i := range taps {
		taps[i] /= gain
	}

	return taps, nil
}

// sinc is the normalized sinc function sin(πx)/(πx).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// FIRFilter applies taps to x as a causal direct form filter with zero
// initial state. The output has the same length as the input and is not
// compensated for the filter delay.
func FIRFilter(taps, x []float64) []float64 {
	y := make([]float64, len(x))
	for n := range y {
		y[n] = convolveAt(taps, x, n)
	}
	return y
}

// FIRFilterDecimate returns Decimate(FIRFilter(taps, x), k) without
// computing the outputs that decimation would discard.
func FIRFilterDecimate(taps, x []float64, k int) []float64 {
	if k < 1 {
		k = 1
	}
	y := make([]float64, len(x)/k)
	for i := range y {
		y[i] = convolveAt(taps, x, i*k)
	}
	return y
}

// convolveAt returns Σ taps[j]·x[n-j] over the taps that overlap x.
func convolveAt(taps, x []float64, n int) float64 {
	var acc float64
	for j := 0; j < len(taps) && j <= n; j++ {
		acc += taps[j] * x[n-j]
	}
	return acc
}
