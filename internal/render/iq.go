package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/vector"
)

// traceWidth is the stroke width of IQ traces in pixels.
const traceWidth = 1.5

var (
	inPhaseColor    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	quadratureColor = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

// IQ draws the in-phase (blue) and quadrature (orange) components of
// samples against the sample index on a fixed [-1, 1] amplitude scale.
func (r *Renderer) IQ(samples []complex64) (*image.RGBA, error) {
	if len(samples) < 2 {
		return nil, ErrShortTrace
	}

	img, area := r.canvas(r.config.SpectrumWidth, r.config.SpectrumHeight)

	if !r.config.NoAnnotations {
		if err := r.annotateIQ(img, area, len(samples)); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	in := make([]float64, len(samples))
	quad := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(real(s))
		quad[i] = float64(imag(s))
	}

	drawTrace(img, area, in, inPhaseColor)
	drawTrace(img, area, quad, quadratureColor)

	return img, nil
}

func (r *Renderer) annotateIQ(img *image.RGBA, area image.Rectangle, n int) error {
	ann := newAnnotator(img, r.font, r.config)
	defer ann.Close()

	if err := ann.drawHorizontalScale(img, area, 0, float64(n), formatIndex); err != nil {
		return fmt.Errorf("drawing sample scale: %w", err)
	}
	if err := ann.drawVerticalScale(img, area, -1, 1, formatAmplitude); err != nil {
		return fmt.Errorf("drawing amplitude scale: %w", err)
	}

	info := fmt.Sprintf("Samples: %s; Real (blue) and imaginary (orange) amplitude", humanize.Comma(int64(n)))
	if err := ann.drawInfoBar(img, info); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

// drawTrace strokes values as a polyline across area, -1 on the bottom row
// and 1 on the top row.
func drawTrace(img *image.RGBA, area image.Rectangle, values []float64, c color.RGBA) {
	w, h := area.Dx(), area.Dy()
	xStep := float64(w-1) / float64(len(values)-1)
	y := func(v float64) float64 {
		return (1-(max(-1, min(1, v))+1)/2)*float64(h-1) + 0.5
	}

	z := vector.NewRasterizer(w, h)
	for i := 1; i < len(values); i++ {
		x0 := float64(i-1)*xStep + 0.5
		x1 := float64(i)*xStep + 0.5
		strokeSegment(z, x0, y(values[i-1]), x1, y(values[i]))
	}
	z.Draw(img, area, image.NewUniform(c), image.Point{})
}

// strokeSegment adds the segment as a quadrilateral traceWidth pixels wide.
// Every quadrilateral winds the same way relative to its direction, so
// overlapping joints do not cancel out.
func strokeSegment(z *vector.Rasterizer, x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx := -dy / length * traceWidth / 2
	ny := dx / length * traceWidth / 2

	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}
