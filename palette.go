package mandel

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Inside is the colour of points that did not escape.
var Inside = color.RGBA{A: 255}

// inside also covers a non-positive cap, where no count can have escaped.
func inside(count, iterationMax int) bool {
	return iterationMax <= 0 || count >= iterationMax
}

// gradientSteps is the size of the lookup table a Gradient is quantized to.
const gradientSteps = 1024

// Gradient blends between colour stops in HCL space. The position of a
// count is sqrt(count/iterationMax), which spreads the low counts that make
// up most of an image over more of the gradient.
type Gradient struct {
	lut [gradientSteps]color.RGBA
}

// GradientStop is one key colour of a Gradient at position Pos in [0, 1].
type GradientStop struct {
	Col colorful.Color
	Pos float64
}

// NewGradient builds a gradient from hex colours spread evenly over [0, 1].
func NewGradient(hexes ...string) (*Gradient, error) {
	if len(hexes) < 2 {
		return nil, fmt.Errorf("gradient needs at least 2 colours, got %d", len(hexes))
	}
	stops := make([]GradientStop, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("gradient colour %q: %w", h, err)
		}
		stops[i] = GradientStop{Col: c, Pos: float64(i) / float64(len(hexes)-1)}
	}
	return NewGradientStops(stops), nil
}

// NewGradientStops builds a gradient from explicit stops.
// Stops are sorted by position; positions outside the stops take the
// colour of the nearest stop.
func NewGradientStops(stops []GradientStop) *Gradient {
	sorted := append([]GradientStop(nil), stops...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })

	g := &Gradient{}
	for i := range g.lut {
		t := float64(i) / float64(gradientSteps-1)
		r, gg, b := interpolate(sorted, t).RGB255()
		g.lut[i] = color.RGBA{R: r, G: gg, B: b, A: 255}
	}
	return g
}

func interpolate(stops []GradientStop, t float64) colorful.Color {
	if len(stops) == 0 {
		return colorful.Color{}
	}
	if t <= stops[0].Pos {
		return stops[0].Col
	}
	for i := 0; i < len(stops)-1; i++ {
		c1, c2 := stops[i], stops[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return c2.Col
			}
			return c1.Col.BlendHcl(c2.Col, (t-c1.Pos)/(c2.Pos-c1.Pos)).Clamped()
		}
	}
	return stops[len(stops)-1].Col
}

// Color implements Palette.
func (g *Gradient) Color(count, iterationMax int) color.RGBA {
	if inside(count, iterationMax) {
		return Inside
	}
	if count < 0 {
		count = 0
	}
	t := math.Sqrt(float64(count) / float64(iterationMax))
	return g.lut[int(t*(gradientSteps-1))]
}

// Grayscale ramps from black for instant escapes to white near the cap.
type Grayscale struct{}

// Color implements Palette.
func (Grayscale) Color(count, iterationMax int) color.RGBA {
	if inside(count, iterationMax) {
		return Inside
	}
	m := uint8(max(count, 0) * 255 / iterationMax)
	return color.RGBA{m, m, m, 255}
}

// wheelSize is the number of colours on the colour wheel, 255 per edge of
// the RGB hexagon.
const wheelSize = 255 * 6

var wheel = colorWheel()

// colorWheel walks red → yellow → green → cyan → blue → magenta → red.
func colorWheel() [wheelSize]color.RGBA {
	var w [wheelSize]color.RGBA
	for i := 0; i < 255; i++ {
		v := uint8(i)
		w[i] = color.RGBA{255, v, 0, 255}
		w[255+i] = color.RGBA{255 - v, 255, 0, 255}
		w[2*255+i] = color.RGBA{0, 255, v, 255}
		w[3*255+i] = color.RGBA{0, 255 - v, 255, 255}
		w[4*255+i] = color.RGBA{v, 0, 255, 255}
		w[5*255+i] = color.RGBA{255, 0, 255 - v, 255}
	}
	return w
}

// Wheel cycles through a fully saturated colour wheel, Density steps per
// iteration.
type Wheel struct {
	Density int
}

// Color implements Palette.
func (w Wheel) Color(count, iterationMax int) color.RGBA {
	if inside(count, iterationMax) {
		return Inside
	}
	d := max(w.Density, 1)
	return wheel[(max(count, 0)*d)%wheelSize]
}

// HSV bands the hue, one full turn every Period iterations (50 when zero).
type HSV struct {
	Period int
}

// Color implements Palette.
func (h HSV) Color(count, iterationMax int) color.RGBA {
	if inside(count, iterationMax) {
		return Inside
	}
	period := h.Period
	if period <= 0 {
		period = 50
	}
	return hueColor(float64(max(count, 0)%period) / float64(period))
}

// hueColor is the fully saturated, full brightness colour at position h of
// the hue circle, h in [0, 1).
func hueColor(h float64) color.RGBA {
	sector := h * 6
	// the rising or falling channel within the sector
	x := uint8(255 * (1 - math.Abs(math.Mod(sector, 2)-1)))
	switch int(sector) {
	case 0:
		return color.RGBA{255, x, 0, 255}
	case 1:
		return color.RGBA{x, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, x, 255}
	case 3:
		return color.RGBA{0, x, 255, 255}
	case 4:
		return color.RGBA{x, 0, 255, 255}
	default:
		return color.RGBA{255, 0, x, 255}
	}
}

// DefaultPalette runs from deep blue through white and gold to dark brown.
var DefaultPalette = mustGradient("#000764", "#206bcb", "#edffff", "#ffaa00", "#000200")

func mustGradient(hexes ...string) *Gradient {
	g, err := NewGradient(hexes...)
	if err != nil {
		panic(err)
	}
	return g
}

var palettes = map[string]Palette{
	"gradient":  DefaultPalette,
	"fire":      mustGradient("#000000", "#7f0000", "#ff4500", "#ffd700", "#ffffe0"),
	"grayscale": Grayscale{},
	"wheel":     Wheel{Density: 8},
	"hsv":       HSV{},
}

// PaletteByName looks up a named palette.
func PaletteByName(name string) (Palette, bool) {
	p, ok := palettes[name]
	return p, ok
}

// PaletteNames lists the palette names in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
