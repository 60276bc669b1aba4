package sdr

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// chunk returns n interleaved I/Q pairs with I = Q = value.
func chunk(n int, value int8) []byte {
	raw := make([]byte, 2*n)
	for i := range raw {
		raw[i] = byte(value)
	}
	return raw
}

func TestSampleBuffer_Overflow(t *testing.T) {
	b, err := NewSampleBuffer(1000)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	expected := []int{400, 400, 200}
	for i, want := range expected {
		if got := b.Append(chunk(400, int8(i+1))); got != want {
			t.Errorf("Chunk %d: expected %d samples accepted, got %d", i, want, got)
		}
	}

	if got := b.Append(chunk(10, 9)); got != 0 {
		t.Errorf("Expected full buffer to accept 0 samples, got %d", got)
	}

	if b.Len() != 1000 {
		t.Errorf("Expected length 1000, got %d", b.Len())
	}

	stats := b.Stats()
	if stats.Accepted != 1000 || stats.Dropped != 210 || stats.Chunks != 4 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	b.Close()
	capture, err := b.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if capture.Len() != 1000 {
		t.Fatalf("Expected 1000 samples, got %d", capture.Len())
	}

	// arrival order is preserved and the third chunk is truncated, not skipped
	for i, s := range capture.Samples {
		want := float32(i/400+1) / 128
		if real(s) != want || imag(s) != want {
			t.Fatalf("Sample %d: expected (%f,%f), got %v", i, want, want, s)
		}
	}
}

func TestSampleBuffer_Normalization(t *testing.T) {
	b, err := NewSampleBuffer(4)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	raw := []byte{0x80, 0x7f, 0x00, 0xff, 0x40, 0xc0, 0x01, 0x02}
	if n := b.Append(raw); n != 4 {
		t.Fatalf("Expected 4 samples, got %d", n)
	}

	b.Close()
	capture, _ := b.Drain()

	expected := []complex64{
		complex(-1, 127.0/128),
		complex(0, -1.0/128),
		complex(0.5, -0.5),
		complex(1.0/128, 2.0/128),
	}
	for i, want := range expected {
		if capture.Samples[i] != want {
			t.Errorf("Sample %d: expected %v, got %v", i, want, capture.Samples[i])
		}
		if r, im := real(capture.Samples[i]), imag(capture.Samples[i]); r < -1 || r > 1 || im < -1 || im > 1 {
			t.Errorf("Sample %d out of range: %v", i, capture.Samples[i])
		}
	}
}

func TestSampleBuffer_MalformedChunk(t *testing.T) {
	var reported []error
	b, err := NewSampleBuffer(10, WithDropHandler(func(err error) {
		reported = append(reported, err)
	}))
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	if n := b.Append([]byte{1, 2, 3}); n != 0 {
		t.Errorf("Expected malformed chunk to be rejected, got %d", n)
	}
	if n := b.Append(chunk(2, 1)); n != 2 {
		t.Errorf("Expected 2 samples after malformed chunk, got %d", n)
	}

	stats := b.Stats()
	if stats.DroppedChunks != 1 {
		t.Errorf("Expected 1 dropped chunk, got %d", stats.DroppedChunks)
	}

	var convErr *ConversionError
	if !errors.As(stats.LastConversion, &convErr) || convErr.Len != 3 {
		t.Errorf("Expected ConversionError{Len: 3}, got %v", stats.LastConversion)
	}
	if len(reported) != 1 {
		t.Errorf("Expected drop handler to be called once, got %d", len(reported))
	}
	if b.Len() != 2 {
		t.Errorf("Expected length 2, got %d", b.Len())
	}
}

func TestSampleBuffer_AppendAfterClose(t *testing.T) {
	b, err := NewSampleBuffer(10)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	b.Append(chunk(3, 5))
	b.Close()
	b.Close()

	before := b.Stats()

	if n := b.Append(chunk(3, 6)); n != 0 {
		t.Errorf("Expected 0 samples after close, got %d", n)
	}
	if b.Len() != 3 {
		t.Errorf("Expected length 3 after close, got %d", b.Len())
	}
	if after := b.Stats(); after != before {
		t.Errorf("Expected stats unchanged after close, got %+v, want %+v", after, before)
	}
}

func TestSampleBuffer_MalformedChunkAfterClose(t *testing.T) {
	var hooked int
	b, err := NewSampleBuffer(10, WithDropHandler(func(error) { hooked++ }))
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	b.Append(chunk(3, 5))
	b.Close()

	if n := b.Append([]byte{1, 2, 3}); n != 0 {
		t.Errorf("Expected 0 samples after close, got %d", n)
	}

	stats := b.Stats()
	if stats.Chunks != 1 || stats.DroppedChunks != 0 {
		t.Errorf("Expected counters untouched after close, got %+v", stats)
	}
	if stats.LastConversion != nil {
		t.Errorf("Expected no conversion error, got %v", stats.LastConversion)
	}
	if hooked != 0 {
		t.Errorf("Expected drop handler not to run after close, ran %d times", hooked)
	}
}

func TestSampleBuffer_Drain(t *testing.T) {
	b, err := NewSampleBuffer(10)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	if _, err = b.Drain(); !errors.Is(err, ErrBufferOpen) {
		t.Errorf("Expected ErrBufferOpen, got %v", err)
	}

	b.Append(chunk(4, 1))
	b.Close()

	capture, err := b.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if capture.Len() != 4 || cap(capture.Samples) != 4 {
		t.Errorf("Expected 4 samples with capacity 4, got len=%d cap=%d", capture.Len(), cap(capture.Samples))
	}
	if b.Cap() != 10 {
		t.Errorf("Expected capacity 10, got %d", b.Cap())
	}

	if _, err = b.Drain(); !errors.Is(err, ErrBufferDrained) {
		t.Errorf("Expected ErrBufferDrained, got %v", err)
	}
}

func TestNewSampleBuffer_Invalid(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewSampleBuffer(capacity); err == nil {
			t.Errorf("Expected error for capacity %d", capacity)
		}
	}
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		rate     float64
		duration time.Duration
		want     int
	}{
		{2_000_000, 60 * time.Second, 120_000_000},
		{2_000_000, 5 * time.Second, 10_000_000},
		{1_000, 1500 * time.Millisecond, 1_500},
		{3, 500 * time.Millisecond, 2},
	}

	for _, tt := range tests {
		if got := CapacityFor(tt.rate, tt.duration); got != tt.want {
			t.Errorf("CapacityFor(%v, %s) = %d, want %d", tt.rate, tt.duration, got, tt.want)
		}
	}
}

func TestSampleBuffer_ConcurrentCloseDrain(t *testing.T) {
	b, err := NewSampleBuffer(100_000)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				b.Append(chunk(256, 1))
			}
		}()
	}

	time.Sleep(time.Millisecond)
	b.Close()
	lenAtClose := b.Len()
	wg.Wait()

	capture, err := b.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if capture.Len() != lenAtClose {
		t.Errorf("Writes observed after close: %d at close, %d drained", lenAtClose, capture.Len())
	}

	stats := b.Stats()
	if stats.Accepted != uint64(capture.Len()) {
		t.Errorf("Accepted counter %d does not match drained length %d", stats.Accepted, capture.Len())
	}
	if stats.Accepted+stats.Dropped != 256*stats.Chunks {
		t.Errorf("Samples unaccounted for: %+v", stats)
	}
	if stats.Chunks > 4*200 {
		t.Errorf("Expected at most %d chunks, got %d", 4*200, stats.Chunks)
	}
}
