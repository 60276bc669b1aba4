package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-capture/internal/capture"
	"github.com/roman-kulish/iq-capture/internal/dsp"
	"github.com/roman-kulish/iq-capture/internal/export"
	"github.com/roman-kulish/iq-capture/internal/render"
	"github.com/roman-kulish/iq-capture/internal/sdr"
)

const timestampFormat = "20060102_150405"

// Run records a capture (or replays one from disk), runs the processing
// pipeline over it and writes the configured artifacts.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if err := os.MkdirAll(config.Output.Directory, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	started := time.Now()
	base := filepath.Join(config.Output.Directory,
		fmt.Sprintf("%s_%s", config.Output.Prefix, started.UTC().Format(timestampFormat)))

	var raw sdr.RawCapture
	var err error
	if config.Device.Replay != "" {
		raw, err = replay(config)
	} else {
		raw, err = record(ctx, config, logger)
	}
	if err != nil {
		return err
	}

	if config.Output.RawIQ && config.Device.Replay == "" && raw.Len() > 0 {
		if err = writeFile(base+".iq", logger, func(f *os.File) error {
			return export.WriteIQ(f, raw.Samples)
		}); err != nil {
			return err
		}
	}

	// an interrupted recording is still processed
	if raw.Interrupted {
		ctx = context.WithoutCancel(ctx)
	}

	pipeline, err := capture.NewPipeline(config.Pipeline, capture.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	result, err := pipeline.Process(ctx, raw)
	if err != nil {
		var insufficient *dsp.InsufficientDataError
		if errors.As(err, &insufficient) {
			logger.Warn(fmt.Sprintf("skipping processing: %s", err.Error()))
			return nil
		}
		return fmt.Errorf("processing capture: %w", err)
	}

	return writeArtifacts(base, started, result, config, logger)
}

func record(ctx context.Context, config *Config, logger *slog.Logger) (sdr.RawCapture, error) {
	session, err := sdr.Open(ctx, config.Device.Driver, config.Device.DeviceConfig, sdr.WithLogger(logger))
	if err != nil {
		return sdr.RawCapture{}, fmt.Errorf("opening device: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn(fmt.Sprintf("closing device: %s", err.Error()))
		}
	}()

	raw, err := sdr.NewRecorder(session).Record(ctx)
	if err != nil {
		if raw.Samples == nil {
			return sdr.RawCapture{}, fmt.Errorf("recording: %w", err)
		}
		// the samples collected before the failed stop are intact
		logger.Warn(fmt.Sprintf("stopping receiver: %s", err.Error()))
	}

	return raw, nil
}

func replay(config *Config) (sdr.RawCapture, error) {
	f, err := os.Open(config.Device.Replay)
	if err != nil {
		return sdr.RawCapture{}, fmt.Errorf("opening replay file: %w", err)
	}
	defer f.Close()

	samples, err := export.ReadIQ(f)
	if err != nil {
		return sdr.RawCapture{}, fmt.Errorf("reading replay file: %w", err)
	}

	return sdr.RawCapture{
		Samples:         samples,
		SampleRate:      config.Device.SampleRate,
		CenterFrequency: config.Device.CenterFrequency,
	}, nil
}

func writeArtifacts(base string, started time.Time, result *capture.Result, config *Config, logger *slog.Logger) error {
	out := config.Output

	if demod := result.Demodulated; demod != nil {
		if out.Demodulated {
			if err := writeFile(base+"_demodulated.npy", logger, func(f *os.File) error {
				return export.WriteNPY(f, demod.Samples)
			}); err != nil {
				return err
			}
		}

		if out.WAV {
			rate := int(math.Round(demod.SampleRate))
			if err := writeFile(base+".wav", logger, func(f *os.File) error {
				return export.WriteWAV(f, demod.Samples, rate)
			}); err != nil {
				return err
			}
		}
	}

	if !out.Waterfall && !out.Spectrum && !out.RFSpectrum && !out.IQ {
		return nil
	}

	theme, err := render.ParseColorTheme(out.Theme)
	if err != nil {
		return err
	}
	renderer, err := render.NewRenderer(render.RenderConfig{
		ColorTheme: theme,
		MinPower:   out.MinPower,
		MaxPower:   out.MaxPower,
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	if out.Waterfall && result.Spectrogram != nil {
		img, err := renderer.Waterfall(*result.Spectrogram, started)
		if err != nil {
			return fmt.Errorf("rendering waterfall: %w", err)
		}
		if err = writeImage(base+"_waterfall", img, out.Format, logger); err != nil {
			return err
		}
	}

	if out.Spectrum && result.Spectrum != nil {
		img, err := renderer.Spectrum(*result.Spectrum)
		if err != nil {
			return fmt.Errorf("rendering spectrum: %w", err)
		}
		if err = writeImage(base+"_spectrum", img, out.Format, logger); err != nil {
			return err
		}
	}

	if out.RFSpectrum && result.RFSpectrum != nil {
		img, err := renderer.Spectrum(*result.RFSpectrum)
		if err != nil {
			return fmt.Errorf("rendering rf spectrum: %w", err)
		}
		if err = writeImage(base+"_rfspectrum", img, out.Format, logger); err != nil {
			return err
		}
	}

	if out.IQ && len(result.IQ) > 1 {
		img, err := renderer.IQ(result.IQ)
		if err != nil {
			return fmt.Errorf("rendering iq trace: %w", err)
		}
		if err = writeImage(base+"_iq", img, out.Format, logger); err != nil {
			return err
		}
	}

	return nil
}

func writeImage(base string, img image.Image, format ImageFormat, logger *slog.Logger) error {
	return writeFile(fmt.Sprintf("%s.%s", base, format), logger, func(f *os.File) error {
		switch format {
		case ImageJPEG:
			return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
		default:
			return png.Encode(f, img)
		}
	})
}

// writeFile creates path, lets fn fill it and logs the result.
func writeFile(path string, logger *slog.Logger, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err = errors.Join(fn(f), f.Close()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	attrs := []any{slog.String("path", path)}
	if stat, err := os.Stat(path); err == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}
	logger.Info("artifact saved", attrs...)

	return nil
}
