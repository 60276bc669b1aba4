// Package render draws spectrograms, spectra and IQ traces as annotated
// images.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	fontSize = 12.0

	// DefaultMaxHeight caps the number of waterfall rows; longer
	// spectrograms are averaged down.
	DefaultMaxHeight = 1024

	DefaultSpectrumWidth  = 1024
	DefaultSpectrumHeight = 400

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultDatetimeFormat = time.DateTime
)

var (
	ErrEmptySpectrogram = errors.New("spectrogram has no rows")
	ErrEmptySpectrum    = errors.New("spectrum has no bins")
	ErrShortTrace       = errors.New("trace needs at least two samples")
)

// BorderConfig defines the sizes of white space around the plot area
type BorderConfig struct {
	Top    int // Space for frequency scale
	Left   int // Space for time or power scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds the rendering options. Zero values select defaults.
type RenderConfig struct {
	ColorTheme     ColorTheme
	ColorMapSize   int
	MaxHeight      int            // Maximum number of waterfall rows
	SpectrumWidth  int            // Spectrum and trace plot area width
	SpectrumHeight int            // Spectrum and trace plot area height
	MinPower       *float64       // Fixed lower power bound, in dB
	MaxPower       *float64       // Fixed upper power bound, in dB
	FontSize       float64        // Font size in points
	DatetimeFormat string         // Format of the capture timestamp
	Location       *time.Location // Timezone of the capture timestamp
	NoAnnotations  bool           // Draw the plot area only
	BorderConfig   BorderConfig
}

// Renderer draws waterfalls, spectrum plots and IQ traces.
type Renderer struct {
	config RenderConfig
	font   *truetype.Font
}

// NewRenderer creates a renderer with the given configuration.
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.MinPower != nil && config.MaxPower != nil && *config.MinPower >= *config.MaxPower {
		return nil, fmt.Errorf("min power %.1f dB must be below max power %.1f dB", *config.MinPower, *config.MaxPower)
	}

	if config.ColorTheme == "" {
		config.ColorTheme = DefaultColorTheme
	}
	if config.ColorMapSize == 0 {
		config.ColorMapSize = DefaultColorMapSize
	}
	if config.MaxHeight <= 0 {
		config.MaxHeight = DefaultMaxHeight
	}
	if config.SpectrumWidth <= 0 {
		config.SpectrumWidth = DefaultSpectrumWidth
	}
	if config.SpectrumHeight <= 0 {
		config.SpectrumHeight = DefaultSpectrumHeight
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
		return &Renderer{config: config}, nil
	}

	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	return &Renderer{config: config, font: parsedFont}, nil
}

// canvas allocates a white image with room for the borders around a plot
// area of the given size and returns the image and the plot area.
func (r *Renderer) canvas(width, height int) (*image.RGBA, image.Rectangle) {
	borders := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0,
		width+borders.Left+borders.Right,
		height+borders.Top+borders.Bottom))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(borders.Left, borders.Top, borders.Left+width, borders.Top+height)
	return img, area
}

// bounds returns the fixed power bounds where configured and percentile
// bounds of the data otherwise.
func (r *Renderer) bounds(rows ...[]float64) PowerBounds {
	var bounds PowerBounds
	if r.config.MinPower == nil || r.config.MaxPower == nil {
		hist := NewPowerHistogram()
		for _, row := range rows {
			hist.UpdateAll(row)
		}
		bounds = hist.PercentileBounds()
	}

	if r.config.MinPower != nil {
		bounds.Min = *r.config.MinPower
	}
	if r.config.MaxPower != nil {
		bounds.Max = *r.config.MaxPower
	}
	return bounds
}

// niceStep picks a 1-2-5 step that divides span into roughly count parts.
func niceStep(span float64, count float64) float64 {
	if span <= 0 || count <= 0 {
		return 0
	}

	raw := span / count
	magnitude := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= raw {
			return step
		}
	}
	return 10 * magnitude
}
