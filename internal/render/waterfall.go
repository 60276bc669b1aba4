package render

import (
	"fmt"
	"image"
	"time"

	"github.com/roman-kulish/iq-capture/internal/dsp"
)

// Waterfall draws m with frequency on the horizontal axis and time growing
// upwards, the first frame on the bottom row. Spectrograms taller than
// MaxHeight are averaged down. capturedAt is printed in the information bar
// when it is not zero.
func (r *Renderer) Waterfall(m dsp.SpectrogramMatrix, capturedAt time.Time) (*image.RGBA, error) {
	if len(m.Rows) == 0 || m.FFTSize == 0 {
		return nil, ErrEmptySpectrogram
	}

	rows := averageRows(m.Rows, r.config.MaxHeight)
	mapper := NewColorMapperWithSize(r.config.ColorTheme, r.bounds(rows...), r.config.ColorMapSize)
	img, area := r.canvas(m.FFTSize, len(rows))

	if !r.config.NoAnnotations {
		if err := r.annotateWaterfall(img, area, m, len(rows), capturedAt); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	for i, row := range rows {
		y := area.Max.Y - 1 - i
		for x, power := range row {
			img.SetRGBA(area.Min.X+x, y, mapper.Color(power))
		}
	}

	return img, nil
}

func (r *Renderer) annotateWaterfall(img *image.RGBA, area image.Rectangle, m dsp.SpectrogramMatrix, lines int, capturedAt time.Time) error {
	ann := newAnnotator(img, r.font, r.config)
	defer ann.Close()

	lo, hi := m.FrequencyRange()
	seconds := float64(len(m.Rows)*m.FFTSize) / m.SampleRate

	if err := ann.drawFrequencyScale(img, area, lo, hi); err != nil {
		return fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := ann.drawVerticalScale(img, area, 0, seconds, formatSeconds); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}

	info := fmt.Sprintf("Freq: %s - %s; FFT: %d; 1px = %s x %s",
		formatFrequency(lo), formatFrequency(hi), m.FFTSize,
		formatFrequency(m.SampleRate/float64(m.FFTSize)),
		formatSeconds(seconds/float64(lines)))
	if !capturedAt.IsZero() {
		info += "; Captured: " + capturedAt.In(r.config.Location).Format(r.config.DatetimeFormat)
	}
	if err := ann.drawInfoBar(img, info); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

// averageRows reduces rows to at most maxRows by averaging groups of
// consecutive rows. The last group may be shorter.
func averageRows(rows [][]float64, maxRows int) [][]float64 {
	group := (len(rows) + maxRows - 1) / maxRows
	if group <= 1 {
		return rows
	}

	out := make([][]float64, 0, (len(rows)+group-1)/group)
	for start := 0; start < len(rows); start += group {
		end := min(start+group, len(rows))
		line := make([]float64, len(rows[start]))
		for _, row := range rows[start:end] {
			for x, v := range row {
				line[x] += v
			}
		}
		n := float64(end - start)
		for x := range line {
			line[x] /= n
		}
		out = append(out, line)
	}
	return out
}
