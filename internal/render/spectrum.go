package render

import (
	"fmt"
	"image"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/iq-capture/internal/dsp"
)

// Spectrum draws v as a bar trace with frequency on the horizontal axis and
// power on the vertical axis. When there are more bins than SpectrumWidth
// columns each column shows the strongest bin it covers.
func (r *Renderer) Spectrum(v dsp.SpectrumVector) (*image.RGBA, error) {
	n := len(v.Power)
	if n == 0 {
		return nil, ErrEmptySpectrum
	}
	if len(v.Frequencies) != n {
		return nil, fmt.Errorf("spectrum has %d bins but %d frequencies", n, len(v.Frequencies))
	}

	columns := peakColumns(v.Power, r.config.SpectrumWidth)
	bounds := r.bounds(v.Power)
	mapper := NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)
	bounds = mapper.Bounds()

	height := r.config.SpectrumHeight
	img, area := r.canvas(len(columns), height)

	if !r.config.NoAnnotations {
		if err := r.annotateSpectrum(img, area, v, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	for x, power := range columns {
		level := clamp01((power - bounds.Min) / (bounds.Max - bounds.Min))
		top := area.Max.Y - 1 - int(level*float64(height-1))
		c := mapper.Color(power)
		for y := top; y < area.Max.Y; y++ {
			img.SetRGBA(area.Min.X+x, y, c)
		}
	}

	return img, nil
}

func (r *Renderer) annotateSpectrum(img *image.RGBA, area image.Rectangle, v dsp.SpectrumVector, bounds PowerBounds) error {
	ann := newAnnotator(img, r.font, r.config)
	defer ann.Close()

	n := len(v.Power)
	resolution := 0.0
	if n > 1 {
		resolution = v.Frequencies[1] - v.Frequencies[0]
	}
	lo, hi := v.Frequencies[0], v.Frequencies[n-1]+resolution

	if err := ann.drawFrequencyScale(img, area, lo, hi); err != nil {
		return fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := ann.drawVerticalScale(img, area, bounds.Min, bounds.Max, formatPower); err != nil {
		return fmt.Errorf("drawing power scale: %w", err)
	}

	peak := v.Peak()
	info := fmt.Sprintf("Freq: %s - %s; Bins: %s; Resolution: %s; Peak: %s at %s",
		formatFrequency(lo), formatFrequency(hi), humanize.Comma(int64(n)),
		formatFrequency(resolution), formatPower(v.Power[peak]), formatFrequency(v.Frequencies[peak]))
	if err := ann.drawInfoBar(img, info); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

// peakColumns reduces power to at most width values, each the maximum of
// the bins mapped to that column.
func peakColumns(power []float64, width int) []float64 {
	if len(power) <= width {
		return power
	}

	out := make([]float64, width)
	for x := range out {
		from := x * len(power) / width
		to := (x + 1) * len(power) / width
		peak := power[from]
		for _, p := range power[from+1 : to] {
			peak = max(peak, p)
		}
		out[x] = peak
	}
	return out
}
