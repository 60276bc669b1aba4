package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/iq-capture/internal/dsp"
	"github.com/roman-kulish/iq-capture/internal/render"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewConfig_Valid(t *testing.T) {
	config := NewConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
	if config.Output.Theme != string(render.DefaultColorTheme) {
		t.Errorf("Expected default theme %q, got %q", render.DefaultColorTheme, config.Output.Theme)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
device:
  driver: driver=mock,realtime=false
  sampleRate: 250000
  centerFrequency: 137620000
  lnaGain: 16
  vgaGain: 20
  basebandFilter: 200000
  captureDuration: 30s
  enableAntenna: true
pipeline:
  fftSize: 1024
  rfSpectrumSamples: 65536
  demodulator:
    targetRate: 12500
output:
  directory: out
  theme: thermal
  wav: false
  iq: false
  minPower: -80
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", config.Settings.LogLevel)
	}
	if config.Device.Driver != "driver=mock,realtime=false" {
		t.Errorf("Unexpected driver %q", config.Device.Driver)
	}
	if config.Device.SampleRate != 250_000 || config.Device.CenterFrequency != 137_620_000 {
		t.Errorf("Unexpected tuning: %+v", config.Device.DeviceConfig)
	}
	if config.Device.LNAGain != 16 || config.Device.VGAGain != 20 {
		t.Errorf("Unexpected gains: LNA %d, VGA %d", config.Device.LNAGain, config.Device.VGAGain)
	}
	if !config.Device.EnableAntenna || config.Device.EnableAmp {
		t.Errorf("Expected antenna power on and amplifier off, got %+v", config.Device.DeviceConfig)
	}
	if config.Device.CaptureDuration != 30*time.Second {
		t.Errorf("Expected 30s capture, got %s", config.Device.CaptureDuration)
	}
	if config.Pipeline.FFTSize != 1024 {
		t.Errorf("Expected fft size 1024, got %d", config.Pipeline.FFTSize)
	}
	if config.Pipeline.RFSpectrumSamples != 65_536 || !config.Pipeline.RFSpectrum {
		t.Errorf("Expected a 65536 sample RF spectrum, got %d", config.Pipeline.RFSpectrumSamples)
	}
	if config.Pipeline.Demodulator.TargetRate != 12500 {
		t.Errorf("Expected target rate 12500, got %v", config.Pipeline.Demodulator.TargetRate)
	}
	// unspecified values keep their defaults
	if config.Pipeline.Demodulator.PassbandLow != dsp.DefaultPassbandLow {
		t.Errorf("Expected default passband low, got %v", config.Pipeline.Demodulator.PassbandLow)
	}
	if !config.Output.RawIQ || config.Output.WAV || config.Output.IQ || !config.Output.RFSpectrum {
		t.Errorf("Unexpected output switches: %+v", config.Output)
	}
	if config.Output.Theme != string(render.ThermalTheme) {
		t.Errorf("Expected thermal theme, got %q", config.Output.Theme)
	}
	if config.Output.MinPower == nil || *config.Output.MinPower != -80 {
		t.Errorf("Expected min power -80, got %v", config.Output.MinPower)
	}
	if config.Output.MaxPower != nil {
		t.Errorf("Expected no max power, got %v", *config.Output.MaxPower)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare driver name", "device:\n  driver: hackrf\n"},
		{"zero sample rate", "device:\n  sampleRate: 0\n"},
		{"negative duration", "device:\n  captureDuration: -1s\n"},
		{"unknown theme", "output:\n  theme: sepia\n"},
		{"unknown format", "output:\n  format: gif\n"},
		{"inverted power", "output:\n  minPower: 0\n  maxPower: -10\n"},
		{"zero fft size", "pipeline:\n  fftSize: 0\n"},
		{"bad log level", "settings:\n  logLevel: loud\n"},
		{"malformed yaml", "device: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
