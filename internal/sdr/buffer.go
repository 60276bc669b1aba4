package sdr

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// scale maps a signed 8-bit component onto [-1, 1).
const scale = 128

var (
	// ErrBufferOpen is returned by Drain when the buffer has not been closed.
	ErrBufferOpen = errors.New("sample buffer is still open")

	// ErrBufferDrained is returned by Drain when the samples were already handed off.
	ErrBufferDrained = errors.New("sample buffer already drained")
)

// ConversionError reports a raw chunk that is not a whole number of I/Q pairs.
type ConversionError struct {
	Len int
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("malformed I/Q chunk: %d bytes is not a whole number of sample pairs", e.Len)
}

// BufferStats is a snapshot of the buffer counters.
type BufferStats struct {
	Chunks         uint64 // chunks offered to Append before Close
	Accepted       uint64 // samples stored
	Dropped        uint64 // samples discarded because the buffer was full
	DroppedChunks  uint64 // chunks discarded because they could not be converted
	LastConversion error
}

// SampleBuffer is a fixed capacity store for complex samples filled by the
// driver callback and read back once, after it is closed.
//
// The backing storage is allocated once. When the buffer is full further
// samples are dropped and counted, Append never blocks and never grows the
// storage.
type SampleBuffer struct {
	capacity int

	mu      sync.Mutex
	samples []complex64
	cursor  int
	closed  bool
	drained bool

	chunks        atomic.Uint64
	accepted      atomic.Uint64
	dropped       atomic.Uint64
	droppedChunks atomic.Uint64

	lastErr   atomic.Pointer[ConversionError]
	onDropped func(error)
}

// WithDropHandler registers a function called whenever a chunk is discarded
// because it is malformed. The function runs on the driver goroutine and
// must not block.
func WithDropHandler(fn func(err error)) func(b *SampleBuffer) {
	return func(b *SampleBuffer) {
		b.onDropped = fn
	}
}

// CapacityFor returns the number of samples needed to hold duration at rate.
func CapacityFor(sampleRate float64, duration time.Duration) int {
	return int(math.Round(sampleRate * duration.Seconds()))
}

// NewSampleBuffer allocates a buffer for exactly capacity samples.
func NewSampleBuffer(capacity int, options ...func(b *SampleBuffer)) (*SampleBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid buffer capacity: %d", capacity)
	}

	b := SampleBuffer{
		capacity: capacity,
		samples:  make([]complex64, capacity),
	}

	for _, option := range options {
		option(&b)
	}

	return &b, nil
}

// Append converts interleaved signed 8-bit I/Q bytes and copies as many
// samples as fit at the write cursor. It returns the number of samples stored.
// Append never panics: a failure inside it drops the chunk. After Close it
// returns 0 and leaves the buffer and its counters untouched.
func (b *SampleBuffer) Append(raw []byte) (n int) {
	defer func() {
		if r := recover(); r != nil {
			b.droppedChunks.Add(1)
			n = 0
		}
	}()

	if len(raw)%2 != 0 {
		if err := b.reject(len(raw)); err != nil && b.onDropped != nil {
			b.onDropped(err)
		}
		return 0
	}

	return b.append(raw)
}

// reject counts a chunk that cannot be converted. It returns nil when the
// buffer is already closed.
func (b *SampleBuffer) reject(length int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	err := &ConversionError{Len: length}
	b.chunks.Add(1)
	b.droppedChunks.Add(1)
	b.lastErr.Store(err)
	return err
}

func (b *SampleBuffer) append(raw []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	b.chunks.Add(1)
	incoming := len(raw) / 2
	n := min(len(b.samples)-b.cursor, incoming)

	dst := b.samples[b.cursor : b.cursor+n]
	for i := range dst {
		re := float32(int8(raw[2*i])) / scale
		im := float32(int8(raw[2*i+1])) / scale
		dst[i] = complex(re, im)
	}
	b.cursor += n

	b.accepted.Add(uint64(n))
	if surplus := incoming - n; surplus > 0 {
		b.dropped.Add(uint64(surplus))
	}

	return n
}

// Close stops the buffer from accepting samples. It is safe to call more
// than once.
func (b *SampleBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Drain hands the filled prefix of the buffer off as a RawCapture. It is only
// valid after Close and only once; the buffer keeps no reference to the
// returned samples.
func (b *SampleBuffer) Drain() (RawCapture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		return RawCapture{}, ErrBufferOpen
	}
	if b.drained {
		return RawCapture{}, ErrBufferDrained
	}

	samples := b.samples[:b.cursor:b.cursor]
	b.samples = nil
	b.drained = true

	return RawCapture{Samples: samples}, nil
}

// Len returns the number of samples stored so far.
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Cap returns the fixed capacity of the buffer.
func (b *SampleBuffer) Cap() int {
	return b.capacity
}

// Closed reports whether Close has been called.
func (b *SampleBuffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Stats returns a snapshot of the buffer counters.
func (b *SampleBuffer) Stats() BufferStats {
	stats := BufferStats{
		Chunks:        b.chunks.Load(),
		Accepted:      b.accepted.Load(),
		Dropped:       b.dropped.Load(),
		DroppedChunks: b.droppedChunks.Load(),
	}
	if err := b.lastErr.Load(); err != nil {
		stats.LastConversion = err
	}
	return stats
}
