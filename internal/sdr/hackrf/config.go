// Package hackrf is the HackRF One backend. The cgo implementation on
// github.com/samuel/go-hackrf is compiled with the "hackrf" build tag; without
// it the driver is registered but refuses to open devices.
package hackrf

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

const (
	Name = "hackrf"

	MinSampleRate = 2_000_000
	MaxSampleRate = 20_000_000
	MinFrequency  = 1_000_000
	MaxFrequency  = 6_000_000_000
	MaxLNAGain    = 40
	MaxVGAGain    = 62
	LNAGainStep   = 8
	VGAGainStep   = 2
)

// validate checks settings against the hardware limits before they are sent
// to the device.
func validate(s driver.Settings) error {
	if s.SampleRate < MinSampleRate || s.SampleRate > MaxSampleRate {
		return fmt.Errorf("hackrf: sample rate must be between 2 and 20 MS/s: %v given", s.SampleRate)
	}
	if s.CenterFrequency < MinFrequency || s.CenterFrequency > MaxFrequency {
		return fmt.Errorf("hackrf: center frequency must be between 1 MHz and 6 GHz: %d given", s.CenterFrequency)
	}
	if s.LNAGain < 0 || s.LNAGain > MaxLNAGain {
		return fmt.Errorf("hackrf: LNA gain must be between 0 and 40 dB: %d given", s.LNAGain)
	}
	if s.LNAGain%LNAGainStep != 0 {
		return errors.New("hackrf: LNA gain must be a multiple of 8 dB")
	}
	if s.VGAGain < 0 || s.VGAGain > MaxVGAGain {
		return fmt.Errorf("hackrf: VGA gain must be between 0 and 62 dB: %d given", s.VGAGain)
	}
	if s.VGAGain%VGAGainStep != 0 {
		return errors.New("hackrf: VGA gain must be a multiple of 2 dB")
	}
	return nil
}
