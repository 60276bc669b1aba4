package dsp

import (
	"math"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Epsilon is the float64 machine epsilon, added to power before taking the
// logarithm so that empty bins stay finite.
const Epsilon = 2.220446049250313e-16

// maxDirectFactor is the largest prime factor transformed directly by the
// mixed radix FFT. Lengths with a larger prime factor go through Bluestein's
// algorithm, whose cost does not depend on the factorization.
const maxDirectFactor = 64

// transform computes an unnormalized forward DFT of a fixed length.
type transform interface {
	Coefficients(dst, seq []complex128) []complex128
	Len() int
}

// newTransform returns the cheapest exact DFT plan for length n.
func newTransform(n int) transform {
	if largestPrimeFactor(n) <= maxDirectFactor {
		return fourier.NewCmplxFFT(n)
	}
	return newBluestein(n)
}

// FFTShift returns a copy of data rotated so that the zero frequency bin is
// in the middle, matching numpy.fft.fftshift for odd and even lengths.
func FFTShift[T any](data []T) []T {
	n := len(data)
	out := make([]T, n)
	for j := range out {
		out[j] = data[shiftIndex(j, n)]
	}
	return out
}

// shiftIndex returns the unshifted index that lands at position j after
// FFTShift.
func shiftIndex(j, n int) int {
	return (j + n - n/2) % n
}

// FFTFreq returns the sample frequencies of an n point DFT with sample
// spacing d, in numpy.fft.fftfreq order.
func FFTFreq(n int, d float64) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		k := i
		if i > (n-1)/2 {
			k = i - n
		}
		freqs[i] = float64(k) / (float64(n) * d)
	}
	return freqs
}

// CenteredFrequencies returns the absolute frequency of every bin of a
// shifted n point spectrum, lowest first. It equals
// FFTShift(FFTFreq(n, 1/sampleRate)) + centerFreq.
func CenteredFrequencies(n int, sampleRate, centerFreq float64) []float64 {
	freqs := make([]float64, n)
	for j := range freqs {
		freqs[j] = centerFreq + float64(j-n/2)*sampleRate/float64(n)
	}
	return freqs
}

// PowerDB returns 10·log10(|v|² + Epsilon).
func PowerDB(v complex128) float64 {
	re, im := real(v), imag(v)
	return 10 * math.Log10(re*re+im*im+Epsilon)
}

func largestPrimeFactor(n int) int {
	largest := 1
	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			largest = p
			n /= p
		}
	}
	if n > 1 {
		largest = max(largest, n)
	}
	return largest
}

// bluestein evaluates an arbitrary length DFT as a circular convolution
// computed with power of two FFTs.
type bluestein struct {
	n      int
	m      int
	chirp  []complex128 // exp(-jπk²/n)
	kernel []complex128 // FFT of the conjugate chirp, wrapped to length m
	fft    *fourier.CmplxFFT
	work   []complex128
}

func newBluestein(n int) *bluestein {
	m := 1 << bits.Len(uint(2*n-2))

	b := bluestein{
		n:     n,
		m:     m,
		chirp: make([]complex128, n),
		fft:   fourier.NewCmplxFFT(m),
		work:  make([]complex128, m),
	}

	// k² mod 2n keeps the angle argument small for long transforms
	twoN := int64(2 * n)
	for k := 0; k < n; k++ {
		kk := int64(k) * int64(k) % twoN
		b.chirp[k] = cmplx.Rect(1, -math.Pi*float64(kk)/float64(n))
	}

	kernel := make([]complex128, m)
	kernel[0] = cmplx.Conj(b.chirp[0])
	for k := 1; k < n; k++ {
		kernel[k] = cmplx.Conj(b.chirp[k])
		kernel[m-k] = kernel[k]
	}
	b.kernel = b.fft.Coefficients(nil, kernel)

	return &b
}

func (b *bluestein) Len() int {
	return b.n
}

func (b *bluestein) Coefficients(dst, seq []complex128) []complex128 {
	if len(seq) != b.n {
		panic("dsp: sequence length mismatch")
	}
	if dst == nil {
		dst = make([]complex128, b.n)
	}

	clear(b.work)
	for k, v := range seq {
		b.work[k] = v * b.chirp[k]
	}

	b.fft.Coefficients(b.work, b.work)
	for k := range b.work {
		// inverse transform through conjugation: ifft(x) = conj(fft(conj(x)))/m
		b.work[k] = cmplx.Conj(b.work[k] * b.kernel[k])
	}
	b.fft.Coefficients(b.work, b.work)

	scale := complex(1/float64(b.m), 0)
	for k := 0; k < b.n; k++ {
		dst[k] = b.chirp[k] * cmplx.Conj(b.work[k]) * scale
	}
	return dst
}
