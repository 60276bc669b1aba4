package dsp

import "math"

// DecimationFactor returns floor(inputRate/targetRate). The output rate is
// therefore inputRate/k, which is at or slightly above targetRate.
func DecimationFactor(inputRate, targetRate float64) (int, error) {
	if !(inputRate > 0) || !(targetRate > 0) {
		return 0, invalid("rates must be positive: input %v, target %v", inputRate, targetRate)
	}
	if targetRate > inputRate {
		return 0, invalid("target rate %v exceeds input rate %v", targetRate, inputRate)
	}
	return int(math.Floor(inputRate / targetRate)), nil
}

// Decimate keeps every k-th element starting with the first: x[0], x[k], ...
// The result has floor(len(x)/k) elements; a trailing partial period is
// dropped. No anti-aliasing is applied.
func Decimate[T any](x []T, k int) []T {
	if k <= 1 {
		return append([]T(nil), x...)
	}
	out := make([]T, len(x)/k)
	for i := range out {
		out[i] = x[i*k]
	}
	return out
}
