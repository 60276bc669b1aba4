//go:build hackrf

package hackrf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samuel/go-hackrf/hackrf"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

func init() {
	driver.Register(Driver{})
}

// Driver opens HackRF One devices through libhackrf.
type Driver struct{}

func (Driver) Name() string {
	return Name
}

// Open opens the first HackRF found on the bus. Selecting a device by serial
// number or index is not supported by the bindings.
func (Driver) Open(ctx context.Context, id driver.Identifier) (driver.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id.Index > 0 || id.Args["serial"] != "" {
		return nil, fmt.Errorf("hackrf: only the first device can be opened, %s requested", id)
	}

	if err := hackrf.Init(); err != nil {
		return nil, fmt.Errorf("hackrf: init: %w", err)
	}

	dev, err := hackrf.Open()
	if err != nil {
		_ = hackrf.Exit()
		return nil, fmt.Errorf("hackrf: open: %w", err)
	}

	return &Handle{dev: dev}, nil
}

// Handle is an open HackRF One.
type Handle struct {
	mu        sync.Mutex
	dev       *hackrf.Device
	streaming bool
}

// RoundDownBasebandFilter asks libhackrf for the largest filter bandwidth
// below hz.
func (h *Handle) RoundDownBasebandFilter(hz uint32) uint32 {
	return uint32(hackrf.ComputeBasebandFilterBWRoundDownLT(int(hz)))
}

// Apply sends the settings to the device in the order hackrf_transfer uses.
func (h *Handle) Apply(s driver.Settings) error {
	if err := validate(s); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev == nil {
		return errors.New("hackrf: device is closed")
	}

	if err := h.dev.SetSampleRate(s.SampleRate); err != nil {
		return fmt.Errorf("hackrf: set sample rate: %w", err)
	}
	if err := h.dev.SetBasebandFilterBandwidth(int(s.BasebandFilter)); err != nil {
		return fmt.Errorf("hackrf: set baseband filter bandwidth: %w", err)
	}
	if err := h.dev.SetAntennaEnable(s.EnableAntenna); err != nil {
		return fmt.Errorf("hackrf: set antenna enable: %w", err)
	}
	if err := h.dev.SetFreq(s.CenterFrequency); err != nil {
		return fmt.Errorf("hackrf: set frequency: %w", err)
	}
	if err := h.dev.SetAmpEnable(s.EnableAmp); err != nil {
		return fmt.Errorf("hackrf: set amp enable: %w", err)
	}
	if err := h.dev.SetLNAGain(s.LNAGain); err != nil {
		return fmt.Errorf("hackrf: set LNA gain: %w", err)
	}
	if err := h.dev.SetVGAGain(s.VGAGain); err != nil {
		return fmt.Errorf("hackrf: set VGA gain: %w", err)
	}

	return nil
}

// StartRX starts streaming. libhackrf calls back on its transfer thread.
func (h *Handle) StartRX(cb driver.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev == nil {
		return errors.New("hackrf: device is closed")
	}
	if h.streaming {
		return errors.New("hackrf: already streaming")
	}

	err := h.dev.StartRX(func(buf []byte) error {
		cb(buf)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hackrf: start rx: %w", err)
	}

	h.streaming = true
	return nil
}

// StopRX stops streaming. libhackrf joins its transfer thread before
// returning, so the callback is not invoked afterwards.
func (h *Handle) StopRX() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.streaming {
		return nil
	}
	h.streaming = false

	if err := h.dev.StopRX(); err != nil {
		return fmt.Errorf("hackrf: stop rx: %w", err)
	}
	return nil
}

func (h *Handle) Close() error {
	if err := h.StopRX(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev == nil {
		return nil
	}

	err := h.dev.Close()
	h.dev = nil

	return errors.Join(err, hackrf.Exit())
}
