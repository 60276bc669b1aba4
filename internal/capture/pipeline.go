// Package capture turns a raw IQ capture into the demodulated signal and the
// spectral views derived from it.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-capture/internal/dsp"
	"github.com/roman-kulish/iq-capture/internal/sdr"
)

const (
	// DefaultSkipSamples is the length of the receiver start-up transient
	// discarded from the head of every capture.
	DefaultSkipSamples = 100_000

	// DefaultMinSamples is the shortest capture worth processing.
	DefaultMinSamples = 100_000

	// DefaultRFSpectrumSamples bounds the single FFT of the RF spectrum.
	DefaultRFSpectrumSamples = 1 << 20

	// DefaultIQTraceSamples is the number of leading samples kept for the
	// IQ trace.
	DefaultIQTraceSamples = 1_000
)

// Config configures the processing stages.
type Config struct {
	SkipSamples int                   `yaml:"skipSamples" json:"skipSamples"`
	MinSamples  int                   `yaml:"minSamples" json:"minSamples"`
	FFTSize     int                   `yaml:"fftSize" json:"fftSize"`
	Demodulator dsp.DemodulatorConfig `yaml:"demodulator" json:"demodulator"`

	Spectrogram bool `yaml:"spectrogram" json:"spectrogram"` // waterfall of the IQ capture
	Spectrum    bool `yaml:"spectrum" json:"spectrum"`       // spectrum of the demodulated signal
	RFSpectrum  bool `yaml:"rfSpectrum" json:"rfSpectrum"`   // spectrum of the IQ capture around the centre frequency

	RFSpectrumSamples int `yaml:"rfSpectrumSamples" json:"rfSpectrumSamples"` // samples after the transient fed to the RF spectrum
	IQTraceSamples    int `yaml:"iqTraceSamples" json:"iqTraceSamples"`       // leading samples kept for the IQ trace, 0 disables it
}

// DefaultConfig returns the settings for a NOAA APT pass.
func DefaultConfig() Config {
	return Config{
		SkipSamples: DefaultSkipSamples,
		MinSamples:  DefaultMinSamples,
		FFTSize:     dsp.DefaultFFTSize,
		Demodulator: dsp.DefaultDemodulatorConfig(),
		Spectrogram: true,
		Spectrum:    true,
		RFSpectrum:  true,

		RFSpectrumSamples: DefaultRFSpectrumSamples,
		IQTraceSamples:    DefaultIQTraceSamples,
	}
}

func (c *Config) Validate() error {
	if c.SkipSamples < 0 {
		return fmt.Errorf("capture.Config: skip samples cannot be negative: %d given", c.SkipSamples)
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("capture.Config: min samples must be at least 2: %d given", c.MinSamples)
	}
	if c.FFTSize < 1 {
		return fmt.Errorf("capture.Config: fft size must be positive: %d given", c.FFTSize)
	}
	if c.RFSpectrum && c.RFSpectrumSamples < 1 {
		return fmt.Errorf("capture.Config: rf spectrum samples must be positive: %d given", c.RFSpectrumSamples)
	}
	if c.IQTraceSamples < 0 {
		return fmt.Errorf("capture.Config: iq trace samples cannot be negative: %d given", c.IQTraceSamples)
	}
	return nil
}

// Result holds everything derived from one capture. Stages that were
// disabled or had too little input are nil.
type Result struct {
	Capture     sdr.RawCapture
	Demodulated *dsp.DemodulatedSignal
	Spectrogram *dsp.SpectrogramMatrix // of the capture after the transient
	Spectrum    *dsp.SpectrumVector    // of the demodulated signal
	RFSpectrum  *dsp.SpectrumVector    // of the capture after the transient, absolute frequencies
	IQ          []complex64            // leading samples of the capture
}

// WithLogger sets the logger for the pipeline
func WithLogger(logger *slog.Logger) func(p *Pipeline) {
	return func(p *Pipeline) {
		p.logger = logger.With(slog.String("component", "pipeline"))
	}
}

// Pipeline runs the offline DSP chain over a capture. It is single threaded
// and does not modify the capture.
type Pipeline struct {
	config      Config
	spectrogram *dsp.SpectrogramEngine
	analyzer    *dsp.SpectrumAnalyzer
	logger      *slog.Logger
}

// NewPipeline validates config and prepares the FFT plans.
func NewPipeline(config Config, options ...func(p *Pipeline)) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine, err := dsp.NewSpectrogramEngine(config.FFTSize)
	if err != nil {
		return nil, err
	}

	p := Pipeline{
		config:      config,
		spectrogram: engine,
		analyzer:    dsp.NewSpectrumAnalyzer(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&p)
	}

	return &p, nil
}

// Process runs every enabled stage over raw. The whole capture is
// demodulated; the start-up transient is skipped only for the spectral views.
//
// When raw holds fewer than MinSamples samples nothing is processed: the
// result carries only the capture and the error is an
// *dsp.InsufficientDataError. A stage that individually lacks input is
// skipped with a warning and the remaining stages still run.
func (p *Pipeline) Process(ctx context.Context, raw sdr.RawCapture) (*Result, error) {
	if raw.Len() < p.config.MinSamples {
		return &Result{Capture: raw}, &dsp.InsufficientDataError{Stage: "capture", Have: raw.Len(), Need: p.config.MinSamples}
	}

	trimmed := raw.Slice(p.config.SkipSamples)
	result := Result{Capture: raw}

	p.logger.Info("processing capture",
		slog.String("samples", humanize.Comma(int64(raw.Len()))),
		slog.String("transient", humanize.Comma(int64(raw.Len()-trimmed.Len()))),
		slog.Duration("duration", raw.Duration()),
	)

	if n := min(raw.Len(), p.config.IQTraceSamples); n > 0 {
		result.IQ = raw.Samples[:n:n]
	}

	demod, err := dsp.NewDemodulator(raw.SampleRate, p.config.Demodulator)
	if err != nil {
		return nil, fmt.Errorf("creating demodulator: %w", err)
	}

	started := time.Now()
	signal, err := demod.Demodulate(raw.Samples)
	if err = p.skippable(err); err != nil {
		return nil, fmt.Errorf("demodulating: %w", err)
	}
	if signal.Samples != nil {
		result.Demodulated = &signal
		p.logger.Info("signal demodulated",
			slog.Int("decimation", demod.Factor()),
			slog.String("rate", humanize.SIWithDigits(signal.SampleRate, 2, "Hz")),
			slog.String("samples", humanize.Comma(int64(len(signal.Samples)))),
			slog.Duration("elapsed", time.Since(started)),
		)
	}

	if err = ctx.Err(); err != nil {
		return &result, err
	}

	if p.config.Spectrogram {
		started = time.Now()
		matrix, err := p.spectrogram.Compute(trimmed.Samples, trimmed.SampleRate, trimmed.CenterFrequency)
		if err = p.skippable(err); err != nil {
			return nil, fmt.Errorf("computing spectrogram: %w", err)
		}
		if matrix.Rows != nil {
			result.Spectrogram = &matrix
			p.logger.Info("spectrogram computed",
				slog.Int("rows", len(matrix.Rows)),
				slog.Int("fftSize", matrix.FFTSize),
				slog.Duration("elapsed", time.Since(started)),
			)
		}
	}

	if err = ctx.Err(); err != nil {
		return &result, err
	}

	if p.config.Spectrum && result.Demodulated != nil {
		spectrum, err := p.analyzer.AnalyzeReal(result.Demodulated.Samples, result.Demodulated.SampleRate)
		if err = p.skippable(err); err != nil {
			return nil, fmt.Errorf("computing spectrum: %w", err)
		}
		if spectrum.Power != nil {
			result.Spectrum = &spectrum
			if peak := spectrum.PeakIn(p.config.Demodulator.PassbandLow, p.config.Demodulator.PassbandHigh); peak >= 0 {
				p.logger.Info("strongest component in passband",
					slog.String("frequency", humanize.SIWithDigits(spectrum.Frequencies[peak], 1, "Hz")),
					slog.Float64("power", spectrum.Power[peak]),
				)
			}
		}
	}

	if err = ctx.Err(); err != nil {
		return &result, err
	}

	if p.config.RFSpectrum {
		started = time.Now()
		head := trimmed.Samples[:min(trimmed.Len(), p.config.RFSpectrumSamples)]
		spectrum, err := p.analyzer.Analyze(head, trimmed.SampleRate, trimmed.CenterFrequency)
		if err = p.skippable(err); err != nil {
			return nil, fmt.Errorf("computing rf spectrum: %w", err)
		}
		if spectrum.Power != nil {
			result.RFSpectrum = &spectrum
			peak := spectrum.Peak()
			p.logger.Info("rf spectrum computed",
				slog.String("samples", humanize.Comma(int64(len(head)))),
				slog.String("peak", humanize.SIWithDigits(spectrum.Frequencies[peak], 4, "Hz")),
				slog.Duration("elapsed", time.Since(started)),
			)
		}
	}

	return &result, nil
}

// skippable logs and swallows an InsufficientDataError; other errors are
// returned unchanged.
func (p *Pipeline) skippable(err error) error {
	var insufficient *dsp.InsufficientDataError
	if errors.As(err, &insufficient) {
		p.logger.Warn("stage skipped: " + insufficient.Error())
		return nil
	}
	return err
}
