package dsp

const (
	DefaultPassbandLow  = 1100  // Hz
	DefaultPassbandHigh = 3700  // Hz
	DefaultTaps         = 101   // filter length
	DefaultTargetRate   = 24000 // Hz
)

// DemodulatorConfig configures the FM demodulation chain.
type DemodulatorConfig struct {
	PassbandLow  float64 `yaml:"passbandLow" json:"passbandLow"`
	PassbandHigh float64 `yaml:"passbandHigh" json:"passbandHigh"`
	Taps         int     `yaml:"taps" json:"taps"`
	TargetRate   float64 `yaml:"targetRate" json:"targetRate"`
}

// DefaultDemodulatorConfig returns the settings used for the NOAA APT
// subcarrier: a 1100-3700 Hz passband and a 24 kHz output rate.
func DefaultDemodulatorConfig() DemodulatorConfig {
	return DemodulatorConfig{
		PassbandLow:  DefaultPassbandLow,
		PassbandHigh: DefaultPassbandHigh,
		Taps:         DefaultTaps,
		TargetRate:   DefaultTargetRate,
	}
}

// DemodulatedSignal is a real baseband signal.
type DemodulatedSignal struct {
	Samples    []float64
	SampleRate float64
}

// Demodulator turns complex IQ samples into a band limited, decimated real
// signal: FM discriminator, FIR bandpass, then decimation.
type Demodulator struct {
	config    DemodulatorConfig
	inputRate float64
	taps      []float64
	factor    int
}

// NewDemodulator designs the filter for inputRate. The passband has to lie
// below the Nyquist frequency of both the input and the decimated output, as
// no further anti-aliasing happens before decimation.
func NewDemodulator(inputRate float64, config DemodulatorConfig) (*Demodulator, error) {
	factor, err := DecimationFactor(inputRate, config.TargetRate)
	if err != nil {
		return nil, err
	}

	taps, err := BandpassTaps(config.Taps, config.PassbandLow, config.PassbandHigh, inputRate)
	if err != nil {
		return nil, err
	}

	outputRate := inputRate / float64(factor)
	if config.PassbandHigh >= outputRate/2 {
		return nil, invalid("passband upper edge %v must be below the output Nyquist frequency %v", config.PassbandHigh, outputRate/2)
	}

	return &Demodulator{
		config:    config,
		inputRate: inputRate,
		taps:      taps,
		factor:    factor,
	}, nil
}

// Factor returns the decimation factor k.
func (d *Demodulator) Factor() int {
	return d.factor
}

// OutputRate returns the sample rate of the demodulated signal.
func (d *Demodulator) OutputRate() float64 {
	return d.inputRate / float64(d.factor)
}

// Taps returns a copy of the bandpass filter coefficients.
func (d *Demodulator) Taps() []float64 {
	return append([]float64(nil), d.taps...)
}

// OutputLen returns the number of samples Demodulate produces for n input
// samples.
func (d *Demodulator) OutputLen(n int) int {
	if n < 2 {
		return 0
	}
	return (n - 1) / d.factor
}

// Demodulate runs the chain over samples. The result has
// floor((len(samples)-1)/k) samples. Inputs too short to produce a single
// output sample return an *InsufficientDataError.
func (d *Demodulator) Demodulate(samples []complex64) (DemodulatedSignal, error) {
	if len(samples) < 2 {
		return DemodulatedSignal{}, &InsufficientDataError{Stage: "demodulate", Have: len(samples), Need: 2}
	}
	if d.OutputLen(len(samples)) == 0 {
		return DemodulatedSignal{}, &InsufficientDataError{Stage: "demodulate", Have: len(samples), Need: d.factor + 1}
	}

	phase := FMDiscriminate(samples)

	return DemodulatedSignal{
		Samples:    FIRFilterDecimate(d.taps, phase, d.factor),
		SampleRate: d.OutputRate(),
	}, nil
}
