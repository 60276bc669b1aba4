package sdr

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

const (
	MaxLNAGain  = 40
	MaxVGAGain  = 62
	LNAGainStep = 8
	VGAGainStep = 2
)

// DeviceConfig describes how a receiver is tuned for a capture.
type DeviceConfig struct {
	SampleRate      float64 `yaml:"sampleRate" json:"sampleRate"`           // samples per second
	CenterFrequency float64 `yaml:"centerFrequency" json:"centerFrequency"` // Hz
	LNAGain         int     `yaml:"lnaGain" json:"lnaGain"`                 // 0-40 dB, 8 dB steps
	VGAGain         int     `yaml:"vgaGain" json:"vgaGain"`                 // 0-62 dB, 2 dB steps
	BasebandFilter  float64 `yaml:"basebandFilter" json:"basebandFilter"`   // Hz, rounded down to a supported value

	CaptureDuration time.Duration `yaml:"captureDuration" json:"captureDuration"`

	EnableAmp     bool `yaml:"enableAmp" json:"enableAmp"`         // RX RF amplifier
	EnableAntenna bool `yaml:"enableAntenna" json:"enableAntenna"` // DC power on the antenna port
}

// Validate rejects values that cannot be corrected by rounding.
func (c *DeviceConfig) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return driver.NewConfigError(fmt.Sprintf("sdr.DeviceConfig: sample rate must be positive: %v given", c.SampleRate))
	}
	if !(c.CenterFrequency >= 0) || c.CenterFrequency > math.MaxUint64 {
		return driver.NewConfigError(fmt.Sprintf("sdr.DeviceConfig: center frequency cannot be negative: %v given", c.CenterFrequency))
	}
	if !(c.BasebandFilter > 0) || c.BasebandFilter > math.MaxUint32 {
		return driver.NewConfigError(fmt.Sprintf("sdr.DeviceConfig: baseband filter must be positive: %v given", c.BasebandFilter))
	}
	if c.CaptureDuration <= 0 {
		return driver.NewConfigError(fmt.Sprintf("sdr.DeviceConfig: capture duration must be positive: %s given", c.CaptureDuration))
	}
	return nil
}

// Adjustment records a value that was changed to the nearest one the
// hardware supports. It is a notice, not an error.
type Adjustment struct {
	Field     string
	Requested float64
	Applied   float64
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s adjusted from %v to %v", a.Field, a.Requested, a.Applied)
}

// Normalize returns a copy of c with gains quantized to the nearest supported
// step and the baseband filter rounded down through caps, together with the
// list of adjustments made.
func (c DeviceConfig) Normalize(caps driver.Capabilities) (DeviceConfig, []Adjustment) {
	var adjustments []Adjustment

	if lna := QuantizeGain(c.LNAGain, LNAGainStep, MaxLNAGain); lna != c.LNAGain {
		adjustments = append(adjustments, Adjustment{Field: "lnaGain", Requested: float64(c.LNAGain), Applied: float64(lna)})
		c.LNAGain = lna
	}

	if vga := QuantizeGain(c.VGAGain, VGAGainStep, MaxVGAGain); vga != c.VGAGain {
		adjustments = append(adjustments, Adjustment{Field: "vgaGain", Requested: float64(c.VGAGain), Applied: float64(vga)})
		c.VGAGain = vga
	}

	if caps != nil {
		requested := uint32(math.Round(c.BasebandFilter))
		if applied := caps.RoundDownBasebandFilter(requested); float64(applied) != c.BasebandFilter {
			adjustments = append(adjustments, Adjustment{Field: "basebandFilter", Requested: c.BasebandFilter, Applied: float64(applied)})
			c.BasebandFilter = float64(applied)
		}
	}

	return c, adjustments
}

// QuantizeGain clamps gain to [0, limit] and rounds it to the nearest
// multiple of step. Values halfway between two steps round up.
func QuantizeGain(gain, step, limit int) int {
	gain = max(0, min(limit, gain))
	gain = int(math.Floor(float64(gain)/float64(step)+0.5)) * step
	return min(limit, gain)
}

// settings converts a normalized config into driver settings.
func (c DeviceConfig) settings() driver.Settings {
	return driver.Settings{
		SampleRate:      c.SampleRate,
		CenterFrequency: uint64(math.Round(c.CenterFrequency)),
		LNAGain:         c.LNAGain,
		VGAGain:         c.VGAGain,
		BasebandFilter:  uint32(math.Round(c.BasebandFilter)),
		EnableAmp:       c.EnableAmp,
		EnableAntenna:   c.EnableAntenna,
	}
}
