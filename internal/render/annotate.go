package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	dpi            = 120.0
	tickMarkLength = 5
	pixelsPerLabel = 150.0 // horizontal spacing between frequency labels
	linesPerLabel  = 60.0  // vertical spacing between value labels
)

type annotator struct {
	context  *freetype.Context
	config   RenderConfig
	fontFace font.Face
}

func newAnnotator(img *image.RGBA, parsedFont *truetype.Font, config RenderConfig) *annotator {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}
}

func (a *annotator) Close() error {
	return a.fontFace.Close()
}

func (a *annotator) fontHeight() (height, descent int) {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round(), metrics.Descent.Round()
}

// drawFrequencyScale labels the top edge of area, lo at the left edge and
// hi at the right edge.
func (a *annotator) drawFrequencyScale(img *image.RGBA, area image.Rectangle, lo, hi float64) error {
	return a.drawHorizontalScale(img, area, lo, hi, formatFrequency)
}

func (a *annotator) drawHorizontalScale(img *image.RGBA, area image.Rectangle, lo, hi float64, format func(float64) string) error {
	span := hi - lo
	width := area.Dx()
	step := niceStep(span, max(2, float64(width)/pixelsPerLabel))
	if step == 0 {
		return nil
	}

	fontHeight, _ := a.fontHeight()
	textY := area.Min.Y - tickMarkLength - fontHeight/2

	for v := math.Ceil(lo/step) * step; v < hi; v += step {
		x := area.Min.X + int((v-lo)/span*float64(width))

		for y := area.Min.Y - tickMarkLength; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := format(v)
		labelWidth := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(labelWidth.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing scale label: %w", err)
		}
	}
	return nil
}

// drawVerticalScale labels the left edge of area with values growing
// upwards, lo on the bottom row.
func (a *annotator) drawVerticalScale(img *image.RGBA, area image.Rectangle, lo, hi float64, format func(float64) string) error {
	span := hi - lo
	height := area.Dy()
	step := niceStep(span, max(2, float64(height)/linesPerLabel))
	if step == 0 {
		return nil
	}

	fontHeight, descent := a.fontHeight()

	for v := math.Ceil(lo/step) * step; v < hi; v += step {
		y := area.Max.Y - 1 - int((v-lo)/span*float64(height))

		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := format(v)
		labelWidth := font.MeasureString(a.fontFace, label)
		textY := y + fontHeight/2 - descent
		pt := freetype.Pt(area.Min.X-tickMarkLength-3-labelWidth.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing scale label: %w", err)
		}
	}
	return nil
}

// drawInfoBar writes text centred in the bottom border.
func (a *annotator) drawInfoBar(img *image.RGBA, text string) error {
	fontHeight, descent := a.fontHeight()
	textY := img.Bounds().Max.Y - (a.config.BorderConfig.Bottom-fontHeight)/2 - descent

	pt := freetype.Pt(a.config.BorderConfig.Left, textY)
	if _, err := a.context.DrawString(text, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func formatFrequency(hz float64) string {
	return humanize.SIWithDigits(hz, 3, "Hz")
}

func formatIndex(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func formatAmplitude(v float64) string {
	return fmt.Sprintf("%.1f", v+0)
}

func formatPower(db float64) string {
	// adding zero turns -0 into 0
	return fmt.Sprintf("%.0f dB", math.Round(db)+0)
}

func formatSeconds(s float64) string {
	d := time.Duration(s * float64(time.Second))
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.String()
	}
}
