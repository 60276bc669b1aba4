package dsp

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"
)

func tone(n int, freq, sampleRate float64) []complex64 {
	out := make([]complex64, n)
	for i := range out {
		out[i] = complex64(cmplx.Rect(1, 2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestSpectrogramEngine_Shape(t *testing.T) {
	engine, err := NewSpectrogramEngine(2048)
	if err != nil {
		t.Fatalf("NewSpectrogramEngine failed: %v", err)
	}

	for _, n := range []int{4096, 4097, 6143} {
		m, err := engine.Compute(make([]complex64, n), 2_000_000, 137_100_000)
		if err != nil {
			t.Fatalf("Compute(%d) failed: %v", n, err)
		}
		if len(m.Rows) != 2 {
			t.Errorf("Input %d: expected 2 rows, got %d", n, len(m.Rows))
		}
		for i, row := range m.Rows {
			if len(row) != 2048 {
				t.Errorf("Input %d row %d: expected 2048 columns, got %d", n, i, len(row))
			}
		}
	}

	_, err = engine.Compute(make([]complex64, 2047), 2_000_000, 137_100_000)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) || insufficient.Need != 2048 || insufficient.Have != 2047 {
		t.Errorf("Expected InsufficientDataError{Have: 2047, Need: 2048}, got %v", err)
	}
}

func TestSpectrogramEngine_Tone(t *testing.T) {
	const (
		fftSize    = 256
		sampleRate = 25_600.0 // 100 Hz bins
		center     = 100_000_000.0
		offset     = 1_500.0
	)

	engine, err := NewSpectrogramEngine(fftSize)
	if err != nil {
		t.Fatalf("NewSpectrogramEngine failed: %v", err)
	}

	m, err := engine.Compute(tone(fftSize*4, offset, sampleRate), sampleRate, center)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	axis := m.FrequencyAxis()
	if len(axis) != fftSize {
		t.Fatalf("Expected %d frequencies, got %d", fftSize, len(axis))
	}

	lo, hi := m.FrequencyRange()
	if lo != center-sampleRate/2 || hi != center+sampleRate/2 {
		t.Errorf("Unexpected frequency range [%v, %v)", lo, hi)
	}
	if axis[0] != lo {
		t.Errorf("Expected first column at %v, got %v", lo, axis[0])
	}

	for r, row := range m.Rows {
		peak := 0
		for j := range row {
			if math.IsInf(row[j], 0) || math.IsNaN(row[j]) {
				t.Fatalf("Row %d column %d is not finite", r, j)
			}
			if row[j] > row[peak] {
				peak = j
			}
		}

		if axis[peak] != center+offset {
			t.Errorf("Row %d: expected peak at %v, got %v", r, center+offset, axis[peak])
		}
		// |X| = fftSize for a unit tone on a bin
		if want := 20 * math.Log10(fftSize); math.Abs(row[peak]-want) > 1e-3 {
			t.Errorf("Row %d: expected peak power %v dB, got %v", r, want, row[peak])
		}
	}

	if m.Duration != 40*time.Millisecond {
		t.Errorf("Expected duration 40ms, got %s", m.Duration)
	}
	times := m.TimeAxis()
	if len(times) != 4 || times[1] != 0.01 {
		t.Errorf("Unexpected time axis %v", times)
	}
}

func TestSpectrogramEngine_ComputeReal(t *testing.T) {
	engine, err := NewSpectrogramEngine(240)
	if err != nil {
		t.Fatalf("NewSpectrogramEngine failed: %v", err)
	}

	const sampleRate = 24_000.0
	x := make([]float64, 240*3+100)
	for i := range x {
		x[i] = math.Cos(2 * math.Pi * 2400 * float64(i) / sampleRate)
	}

	m, err := engine.ComputeReal(x, sampleRate)
	if err != nil {
		t.Fatalf("ComputeReal failed: %v", err)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(m.Rows))
	}

	axis := m.FrequencyAxis()
	row := m.Rows[0]

	// a real tone is mirrored around 0 Hz
	pos, neg := -1, -1
	for j, f := range axis {
		if f == 2400 {
			pos = j
		}
		if f == -2400 {
			neg = j
		}
	}
	if pos < 0 || neg < 0 {
		t.Fatal("Expected ±2400 Hz bins on the axis")
	}
	if math.Abs(row[pos]-row[neg]) > 1e-6 {
		t.Errorf("Expected symmetric spectrum, got %v and %v", row[pos], row[neg])
	}
	for j := range row {
		if row[j] > row[pos]+1e-9 {
			t.Fatalf("Column %d (%v Hz) exceeds the tone bin", j, axis[j])
		}
	}
}

func TestNewSpectrogramEngine_Invalid(t *testing.T) {
	if _, err := NewSpectrogramEngine(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
