package sdr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateClosed State = iota
	StateConfigured
	StateReceiving
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConfigured:
		return "configured"
	case StateReceiving:
		return "receiving"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	// ErrNotReceiving is returned by StopReceive outside of the receiving state.
	ErrNotReceiving = errors.New("session is not receiving")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)

// Writer consumes raw interleaved I/Q chunks delivered by the driver.
// SampleBuffer is the standard implementation.
type Writer interface {
	Append(raw []byte) int
}

// WithLogger sets the logger for the session
func WithLogger(logger *slog.Logger) func(s *Session) {
	return func(s *Session) {
		s.logger = logger.With(
			slog.String("driver", s.id.Driver),
			slog.String("device", s.id.String()),
		)
	}
}

// Session owns one open device handle and drives it through
// Closed -> Configured -> Receiving -> Stopped -> Closed.
type Session struct {
	id     driver.Identifier
	handle driver.Handle

	mu     sync.Mutex
	state  State
	config DeviceConfig

	// gate is held for reading by every callback in flight and for writing by
	// StopReceive, so that StopReceive returns only after they all exit.
	gate      sync.RWMutex
	accepting atomic.Bool
	panics    atomic.Uint64

	logger *slog.Logger
}

// Open resolves identifier to a registered driver, opens the device and
// configures it. On any failure the handle is released and a
// *driver.DeviceError is returned.
func Open(ctx context.Context, identifier string, cfg DeviceConfig, options ...func(s *Session)) (*Session, error) {
	id, err := driver.ParseIdentifier(identifier)
	if err != nil {
		return nil, driver.NewDeviceError("open", err)
	}

	drv, err := driver.Lookup(id.Driver)
	if err != nil {
		return nil, driver.NewDeviceError("open", err)
	}

	return OpenDriver(ctx, drv, id, cfg, options...)
}

// OpenDriver is like Open but uses drv directly instead of the registry.
func OpenDriver(ctx context.Context, drv driver.Driver, id driver.Identifier, cfg DeviceConfig, options ...func(s *Session)) (*Session, error) {
	handle, err := drv.Open(ctx, id)
	if err != nil {
		return nil, driver.NewDeviceError("open", err)
	}

	s := Session{
		id:     id,
		handle: handle,
		state:  StateClosed,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&s)
	}

	if err = s.Configure(cfg); err != nil {
		if closeErr := handle.Close(); closeErr != nil {
			s.logger.Warn(fmt.Sprintf("error closing device after failed configure: %s", closeErr.Error()))
		}
		return nil, err
	}

	return &s, nil
}

// Configure validates cfg, rounds it to supported values and applies it to
// the device. It is allowed on a freshly opened or configured session only.
// Every rounding is logged as a notice.
func (s *Session) Configure(cfg DeviceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.handle == nil:
		return driver.NewDeviceError("configure", ErrSessionClosed)
	case s.state == StateReceiving || s.state == StateStopped:
		return driver.NewDeviceError("configure", fmt.Errorf("session is %s", s.state))
	}

	if err := cfg.Validate(); err != nil {
		return driver.NewDeviceError("configure", err)
	}

	normalized, adjustments := cfg.Normalize(s.handle)
	for _, adj := range adjustments {
		s.logger.Info("rounding notice: "+adj.String(),
			slog.String("field", adj.Field),
			slog.Float64("requested", adj.Requested),
			slog.Float64("applied", adj.Applied),
		)
	}

	if err := s.handle.Apply(normalized.settings()); err != nil {
		return driver.NewDeviceError("configure", err)
	}

	s.config = normalized
	s.state = StateConfigured

	s.logger.Info("device configured",
		slog.String("centerFrequency", humanize.SIWithDigits(normalized.CenterFrequency, 3, "Hz")),
		slog.String("sampleRate", humanize.SIWithDigits(normalized.SampleRate, 3, "S/s")),
		slog.String("basebandFilter", humanize.SIWithDigits(normalized.BasebandFilter, 3, "Hz")),
		slog.Int("lnaGain", normalized.LNAGain),
		slog.Int("vgaGain", normalized.VGAGain),
		slog.Bool("enableAmp", normalized.EnableAmp),
		slog.Duration("captureDuration", normalized.CaptureDuration),
	)

	return nil
}

// StartReceive registers w with the driver and starts the sample stream.
// Calling it on a session that is not configured is a programming error and
// panics.
func (s *Session) StartReceive(w Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfigured {
		panic(fmt.Sprintf("sdr: StartReceive called on a %s session", s.state))
	}

	s.accepting.Store(true)
	if err := s.handle.StartRX(s.guard(w)); err != nil {
		s.accepting.Store(false)
		return driver.NewStreamError("start", err)
	}

	s.state = StateReceiving
	s.logger.Info("receiving samples...")

	return nil
}

// guard wraps the writer so that chunks arriving after StopReceive are
// discarded and no panic crosses into driver-owned code.
func (s *Session) guard(w Writer) driver.Callback {
	return func(buf []byte) {
		s.gate.RLock()
		defer s.gate.RUnlock()

		defer func() {
			if r := recover(); r != nil {
				s.panics.Add(1)
			}
		}()

		if !s.accepting.Load() {
			return
		}
		w.Append(buf)
	}
}

// StopReceive stops the stream. It returns once no further callback can
// reach the writer, even if the driver reports an error while stopping.
func (s *Session) StopReceive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReceiving {
		return ErrNotReceiving
	}

	return s.stop()
}

func (s *Session) stop() error {
	s.accepting.Store(false)
	err := s.handle.StopRX()

	// wait for callbacks already past the accepting check
	s.gate.Lock()
	s.state = StateStopped
	s.gate.Unlock()

	if n := s.panics.Load(); n > 0 {
		s.logger.Warn(fmt.Sprintf("%d callback panics recovered", n))
	}
	s.logger.Info("receiving stopped")

	if err != nil {
		return driver.NewStreamError("stop", err)
	}
	return nil
}

// Close releases the device, stopping reception first if needed. It is safe
// to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}

	var errs []error
	if s.state == StateReceiving {
		if err := s.stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.handle.Close(); err != nil {
		errs = append(errs, driver.NewDeviceError("close", err))
	}

	s.handle = nil
	s.state = StateClosed
	s.logger.Debug("device closed")

	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the configuration applied to the device, after rounding.
func (s *Session) Config() DeviceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}
