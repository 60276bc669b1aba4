package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/iq-capture/internal/capture"
	"github.com/roman-kulish/iq-capture/internal/render"
	"github.com/roman-kulish/iq-capture/internal/sdr"
	"github.com/roman-kulish/iq-capture/internal/sdr/driver"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultPrefix = "capture"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Device   DeviceConfig   `yaml:"device"`
	Pipeline capture.Config `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// DeviceConfig selects the receiver and how it is tuned.
type DeviceConfig struct {
	Driver string `yaml:"driver"` // driver identifier, e.g. "driver=hackrf" or "0"
	Replay string `yaml:"replay"` // raw .iq file processed instead of recording

	sdr.DeviceConfig `yaml:",inline"`
}

// OutputConfig controls which artifacts are written and where. Every file
// name starts with Prefix followed by the capture start time.
type OutputConfig struct {
	Directory   string      `yaml:"directory"`
	Prefix      string      `yaml:"prefix"`
	RawIQ       bool        `yaml:"rawIQ"`       // <prefix>.iq, interleaved little endian float32 I/Q
	Demodulated bool        `yaml:"demodulated"` // <prefix>_demodulated.npy
	WAV         bool        `yaml:"wav"`         // <prefix>.wav
	Waterfall   bool        `yaml:"waterfall"`   // <prefix>_waterfall.<format>
	Spectrum    bool        `yaml:"spectrum"`    // <prefix>_spectrum.<format>
	RFSpectrum  bool        `yaml:"rfSpectrum"`  // <prefix>_rfspectrum.<format>
	IQ          bool        `yaml:"iq"`          // <prefix>_iq.<format>
	Format      ImageFormat `yaml:"format"`
	Theme       string      `yaml:"theme"`
	MinPower    *float64    `yaml:"minPower"`
	MaxPower    *float64    `yaml:"maxPower"`
}

// NewConfig returns a configuration for a one minute NOAA 19 pass on the
// first HackRF, writing every artifact to the working directory.
func NewConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: slog.LevelInfo},
		Device: DeviceConfig{
			Driver: "driver=" + driver.DefaultDriver,
			DeviceConfig: sdr.DeviceConfig{
				SampleRate:      2_000_000,
				CenterFrequency: 137_100_000,
				LNAGain:         24,
				VGAGain:         16,
				BasebandFilter:  200_000,
				CaptureDuration: time.Minute,
			},
		},
		Pipeline: capture.DefaultConfig(),
		Output: OutputConfig{
			Directory:   ".",
			Prefix:      defaultPrefix,
			RawIQ:       true,
			Demodulated: true,
			WAV:         true,
			Waterfall:   true,
			Spectrum:    true,
			RFSpectrum:  true,
			IQ:          true,
			Format:      ImagePNG,
			Theme:       string(render.DefaultColorTheme),
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if _, err := driver.ParseIdentifier(c.Device.Driver); err != nil {
		return fmt.Errorf("invalid device driver: %w", err)
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Output.Validate()
}

func (c *OutputConfig) Validate() error {
	if c.Directory == "" {
		return errors.New("app.OutputConfig: directory is required")
	}
	if c.Prefix == "" {
		return errors.New("app.OutputConfig: prefix is required")
	}
	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("app.OutputConfig: invalid image format: %s", c.Format)
	}
	if _, err := render.ParseColorTheme(c.Theme); err != nil {
		return fmt.Errorf("app.OutputConfig: %w", err)
	}
	if c.MinPower != nil && c.MaxPower != nil && *c.MinPower >= *c.MaxPower {
		return fmt.Errorf("app.OutputConfig: min power must be below max power: %v >= %v", *c.MinPower, *c.MaxPower)
	}
	return nil
}
