// Package mock provides a simulated receiver. It produces an FM modulated
// APT-like signal (a 2400 Hz subcarrier, amplitude modulated at the line
// rate) as interleaved signed 8-bit I/Q chunks, calling back from its own
// goroutine like a real driver does.
//
// The driver registers itself as "mock". Identifier arguments override the
// defaults, e.g. "driver=mock,realtime=false,chunk=16384,tone=2400".
package mock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

const (
	Name = "mock"

	DefaultChunkSize = 262144 // bytes, the HackRF USB transfer size
	DefaultTone      = 2400   // Hz, APT subcarrier
	DefaultDeviation = 17000  // Hz
	DefaultLineRate  = 2      // Hz, APT lines per second
	DefaultAmplitude = 100
	DefaultNoise     = 1.5
)

var (
	ErrNotConfigured = errors.New("mock: device is not configured")
	ErrStreaming     = errors.New("mock: already streaming")
	ErrClosed        = errors.New("mock: device is closed")
)

// DefaultFilterTable lists the simulated baseband filter bandwidths.
var DefaultFilterTable = func() []uint32 {
	var table []uint32
	for bw := uint32(175_000); bw <= 2_000_000; bw += 25_000 {
		table = append(table, bw)
	}
	return table
}()

func init() {
	driver.Register(New())
}

// Driver is the simulated driver.
type Driver struct {
	name        string
	chunkSize   int
	realtime    bool
	tone        float64
	deviation   float64
	lineRate    float64
	amplitude   float64
	noise       float64
	filterTable []uint32

	openErr  error
	applyErr error
	startErr error
	stopErr  error
}

// WithName registers the driver under another name.
func WithName(name string) func(d *Driver) {
	return func(d *Driver) {
		d.name = name
	}
}

// WithChunkSize sets the number of bytes delivered per callback.
func WithChunkSize(size int) func(d *Driver) {
	return func(d *Driver) {
		d.chunkSize = size
	}
}

// WithRealtime paces chunks to the configured sample rate. Without it the
// driver calls back as fast as the callback returns.
func WithRealtime(realtime bool) func(d *Driver) {
	return func(d *Driver) {
		d.realtime = realtime
	}
}

// WithTone sets the subcarrier frequency of the modulating signal.
func WithTone(hz float64) func(d *Driver) {
	return func(d *Driver) {
		d.tone = hz
	}
}

// WithDeviation sets the peak FM deviation.
func WithDeviation(hz float64) func(d *Driver) {
	return func(d *Driver) {
		d.deviation = hz
	}
}

// WithNoise sets the standard deviation of additive noise, in LSB.
func WithNoise(lsb float64) func(d *Driver) {
	return func(d *Driver) {
		d.noise = lsb
	}
}

// WithFilterTable replaces the supported baseband filter bandwidths.
func WithFilterTable(table []uint32) func(d *Driver) {
	return func(d *Driver) {
		d.filterTable = table
	}
}

// WithErrors injects failures into Open, Apply, StartRX and StopRX.
func WithErrors(open, apply, start, stop error) func(d *Driver) {
	return func(d *Driver) {
		d.openErr = open
		d.applyErr = apply
		d.startErr = start
		d.stopErr = stop
	}
}

// New creates a simulated driver.
func New(options ...func(d *Driver)) *Driver {
	d := Driver{
		name:        Name,
		chunkSize:   DefaultChunkSize,
		realtime:    true,
		tone:        DefaultTone,
		deviation:   DefaultDeviation,
		lineRate:    DefaultLineRate,
		amplitude:   DefaultAmplitude,
		noise:       DefaultNoise,
		filterTable: DefaultFilterTable,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

func (d *Driver) Name() string {
	return d.name
}

// Open returns a handle for device index 0. Identifier arguments realtime,
// chunk, tone, deviation and noise override the driver defaults.
func (d *Driver) Open(ctx context.Context, id driver.Identifier) (driver.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.openErr != nil {
		return nil, d.openErr
	}
	if id.Index > 0 {
		return nil, fmt.Errorf("mock: no device at index %d", id.Index)
	}

	cfg := *d
	cfg.realtime = id.Bool("realtime", d.realtime)
	cfg.chunkSize = id.Int("chunk", d.chunkSize)
	cfg.tone = id.Float("tone", d.tone)
	cfg.deviation = id.Float("deviation", d.deviation)
	cfg.noise = id.Float("noise", d.noise)

	if cfg.chunkSize <= 0 || cfg.chunkSize%2 != 0 {
		return nil, fmt.Errorf("mock: chunk size must be a positive even number: %d given", cfg.chunkSize)
	}

	return &Handle{cfg: cfg}, nil
}

// Handle is an open simulated device.
type Handle struct {
	cfg Driver

	mu        sync.Mutex
	settings  driver.Settings
	applied   bool
	streaming bool
	closed    bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	callbacks atomic.Uint64
}

func (h *Handle) RoundDownBasebandFilter(hz uint32) uint32 {
	return driver.RoundDownLT(h.cfg.filterTable, hz)
}

// Apply validates settings the way the hardware would and stores them.
func (h *Handle) Apply(s driver.Settings) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return ErrClosed
	case h.streaming:
		return ErrStreaming
	case h.cfg.applyErr != nil:
		return h.cfg.applyErr
	case s.SampleRate <= 0:
		return fmt.Errorf("mock: invalid sample rate %v", s.SampleRate)
	case s.LNAGain < 0 || s.LNAGain > 40 || s.LNAGain%8 != 0:
		return fmt.Errorf("mock: unsupported LNA gain %d", s.LNAGain)
	case s.VGAGain < 0 || s.VGAGain > 62 || s.VGAGain%2 != 0:
		return fmt.Errorf("mock: unsupported VGA gain %d", s.VGAGain)
	case h.RoundDownBasebandFilter(s.BasebandFilter+1) != s.BasebandFilter: // not a table entry
		return fmt.Errorf("mock: unsupported baseband filter %d", s.BasebandFilter)
	}

	h.settings = s
	h.applied = true
	return nil
}

// Settings returns the last applied settings.
func (h *Handle) Settings() driver.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// Callbacks returns the number of completed callback invocations.
func (h *Handle) Callbacks() uint64 {
	return h.callbacks.Load()
}

func (h *Handle) StartRX(cb driver.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return ErrClosed
	case !h.applied:
		return ErrNotConfigured
	case h.streaming:
		return ErrStreaming
	case h.cfg.startErr != nil:
		return h.cfg.startErr
	}

	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	h.streaming = true

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.stream(ctx, cb, newGenerator(&h.cfg, h.settings.SampleRate))
	}()

	return nil
}

// StopRX cancels the producer goroutine and waits for it to exit, so no
// callback runs after it returns.
func (h *Handle) StopRX() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.streaming {
		return nil
	}

	h.cancel()
	h.wg.Wait()
	h.streaming = false

	return h.cfg.stopErr
}

func (h *Handle) Close() error {
	h.mu.Lock()
	streaming := h.streaming
	h.mu.Unlock()

	var err error
	if streaming {
		err = h.StopRX()
	}

	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	return err
}

func (h *Handle) stream(ctx context.Context, cb driver.Callback, gen *generator) {
	buf := make([]byte, h.cfg.chunkSize)
	period := max(time.Microsecond, time.Duration(float64(len(buf)/2)/gen.rate*float64(time.Second)))

	var ticker *time.Ticker
	if h.cfg.realtime {
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}

	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		gen.fill(buf)
		cb(buf)
		h.callbacks.Add(1)
	}
}

// generator synthesizes the FM signal sample by sample.
type generator struct {
	rate      float64
	tone      float64
	deviation float64
	lineRate  float64
	amplitude float64
	noise     float64

	n     uint64
	phase float64
	rng   *rand.Rand
}

func newGenerator(cfg *Driver, rate float64) *generator {
	return &generator{
		rate:      rate,
		tone:      cfg.tone,
		deviation: cfg.deviation,
		lineRate:  cfg.lineRate,
		amplitude: cfg.amplitude,
		noise:     cfg.noise,
		rng:       rand.New(rand.NewPCG(1, 2)),
	}
}

// fill writes len(buf)/2 interleaved I/Q pairs.
func (g *generator) fill(buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		t := float64(g.n) / g.rate
		envelope := 0.7 + 0.3*math.Sin(2*math.Pi*g.lineRate*t)
		message := envelope * math.Sin(2*math.Pi*g.tone*t)

		g.phase += 2 * math.Pi * g.deviation * message / g.rate
		g.phase = math.Mod(g.phase, 2*math.Pi)

		re := g.amplitude*math.Cos(g.phase) + g.noise*g.rng.NormFloat64()
		im := g.amplitude*math.Sin(g.phase) + g.noise*g.rng.NormFloat64()

		buf[i] = byte(quantize(re))
		buf[i+1] = byte(quantize(im))
		g.n++
	}
}

func quantize(v float64) int8 {
	return int8(max(-128, min(127, math.Round(v))))
}
