package render

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme names a colour scheme for power visualisation.
type ColorTheme string

const (
	ViridisTheme   ColorTheme = "viridis"   // Dark purple to teal to yellow
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white
	EnhancedTheme  ColorTheme = "enhanced"  // Black to blue to cyan to yellow to red

	DefaultColorTheme   = ViridisTheme
	DefaultColorMapSize = 256 // Default number of colors in the map
)

var themes = map[ColorTheme]func(float64) colorful.Color{
	ViridisTheme:   viridis,
	ClassicTheme:   classic,
	GrayscaleTheme: grayscale,
	JungleTheme:    jungle,
	ThermalTheme:   thermal,
	MarineTheme:    marine,
	EnhancedTheme:  enhanced,
}

// Themes returns the names of all known colour themes, sorted.
func Themes() []ColorTheme {
	names := make([]ColorTheme, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseColorTheme resolves a theme name. An empty name selects the default
// theme.
func ParseColorTheme(name string) (ColorTheme, error) {
	if name == "" {
		return DefaultColorTheme, nil
	}
	if _, ok := themes[ColorTheme(name)]; !ok {
		return "", fmt.Errorf("unknown color theme %q", name)
	}
	return ColorTheme(name), nil
}

// ColorMapper maps power values to colours through a pre-computed lookup
// table spanning the current power bounds.
type ColorMapper struct {
	colorMap      []color.RGBA // Pre-computed colors
	theme         func(float64) colorful.Color
	themeName     ColorTheme
	size          int
	bounds        PowerBounds
	powerPerIndex float64 // Power range per index step
}

// NewColorMapper creates a mapper of DefaultColorMapSize colours. Unknown
// themes fall back to the default theme.
func NewColorMapper(theme ColorTheme, bounds PowerBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a mapper with size pre-computed colours.
func NewColorMapperWithSize(theme ColorTheme, bounds PowerBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	fn, ok := themes[theme]
	if !ok {
		theme, fn = DefaultColorTheme, themes[DefaultColorTheme]
	}

	cm := &ColorMapper{
		colorMap:  make([]color.RGBA, size),
		theme:     fn,
		themeName: theme,
		size:      size,
	}
	for i := range cm.colorMap {
		normalized := float64(i) / float64(size-1)
		cm.colorMap[i] = toRGBA(cm.theme(normalized))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the power range covered by the colour map.
func (cm *ColorMapper) UpdateBounds(bounds PowerBounds) {
	if bounds.Max <= bounds.Min {
		bounds.Max = bounds.Min + 1
	}
	cm.bounds = bounds
	cm.powerPerIndex = (bounds.Max - bounds.Min) / float64(cm.size-1)
}

// Bounds returns the power range covered by the colour map.
func (cm *ColorMapper) Bounds() PowerBounds {
	return cm.bounds
}

// Color returns the colour for the given power. Values outside the bounds
// are clamped; NaN maps to the lowest colour.
func (cm *ColorMapper) Color(power float64) color.RGBA {
	if math.IsNaN(power) {
		return cm.colorMap[0]
	}

	index := int((power - cm.bounds.Min) / cm.powerPerIndex)
	switch {
	case index < 0:
		return cm.colorMap[0]
	case index >= cm.size:
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return cm.size
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// viridisStops samples matplotlib's viridis colour map at nine evenly
// spaced points.
var viridisStops = []colorful.Color{
	rgb(0x44, 0x01, 0x54),
	rgb(0x48, 0x28, 0x78),
	rgb(0x3e, 0x49, 0x89),
	rgb(0x31, 0x68, 0x8e),
	rgb(0x26, 0x82, 0x8e),
	rgb(0x1f, 0x9e, 0x89),
	rgb(0x35, 0xb7, 0x79),
	rgb(0x6e, 0xce, 0x58),
	rgb(0xfd, 0xe7, 0x25),
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func viridis(power float64) colorful.Color {
	power = clamp01(power)
	pos := power * float64(len(viridisStops)-1)
	i := int(pos)
	if i >= len(viridisStops)-1 {
		return viridisStops[len(viridisStops)-1]
	}
	return viridisStops[i].BlendRgb(viridisStops[i+1], pos-float64(i))
}

func classic(power float64) colorful.Color {
	power = clamp01(power)
	return colorful.Hsv(240-(power*240), 0.9+(power*0.1), math.Pow(power, 0.7))
}

func grayscale(power float64) colorful.Color {
	v := math.Pow(clamp01(power), 0.7)
	return colorful.Color{R: v, G: v, B: v}
}

func jungle(power float64) colorful.Color {
	power = clamp01(power)
	return colorful.Hsv(120-(power*60), 1.0, 0.3+(math.Pow(power, 0.6)*0.7))
}

func thermal(power float64) colorful.Color {
	power = clamp01(power)
	switch {
	case power < 0.33:
		return colorful.Color{R: power * 3}
	case power < 0.66:
		return colorful.Color{R: 1, G: (power - 0.33) * 3}
	default:
		return colorful.Color{R: 1, G: 1, B: (power - 0.66) * 3}
	}
}

func marine(power float64) colorful.Color {
	power = clamp01(power)
	return colorful.Hsv(240-(power*60), 1.0-(power*0.8), 0.3+(math.Pow(power, 0.6)*0.7))
}

// enhanced spreads the lower half of the range over more hues so that weak
// signals stand out from the noise floor.
func enhanced(power float64) colorful.Color {
	power = clamp01(power)
	boosted := math.Pow(power, 0.7)

	switch {
	case power < 0.25:
		return colorful.Hsv(240, 1.0, math.Min(1.0, boosted*4))
	case power < 0.5:
		return colorful.Hsv(240-((power-0.25)*240), 1.0, math.Min(1.0, boosted*1.5))
	case power < 0.75:
		p := (power - 0.5) * 4
		return colorful.Hsv(180-(p*120), 1.0, math.Min(1.0, boosted*1.5))
	default:
		p := (power - 0.75) * 4
		return colorful.Hsv(60-(p*60), 1.0, 1.0)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
