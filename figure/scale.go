package figure

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorScale maps grid values to colours.
type ColorScale interface {
	Color(v float64) colorful.Color
	// Domain is the value range the scale spans; values outside it are clamped.
	Domain() (lo, hi float64)
	// Discrete reports whether the scale has a fixed set of colour bands.
	Discrete() bool
}

// YlGnBu is the 9-class ColorBrewer yellow-green-blue sequential palette.
var YlGnBu = []string{
	"#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4",
	"#1d91c0", "#225ea8", "#253494", "#081d58",
}

// PolicyColors are the stick and hit colours, in action-code order.
var PolicyColors = []string{"#fcf6f5", "#89abe3"}

// MissingColor is drawn for NaN cells, which no scale can place.
const MissingColor = "#bdbdbd"

var missingColor, _ = colorful.Hex(MissingColor)

// Continuous interpolates between evenly spaced colour stops in Lab space.
type Continuous struct {
	stops  []colorful.Color
	lo, hi float64
}

// NewContinuous returns a scale over [lo, hi]. A degenerate domain is widened
// to [lo, lo+1] so that every value still has a well defined colour.
func NewContinuous(palette []string, lo, hi float64) (*Continuous, error) {
	stops, err := parsePalette(palette)
	if err != nil {
		return nil, err
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &Continuous{stops: stops, lo: lo, hi: hi}, nil
}

func (cs *Continuous) Domain() (float64, float64) { return cs.lo, cs.hi }

func (cs *Continuous) Discrete() bool { return false }

func (cs *Continuous) Color(v float64) colorful.Color {
	if math.IsNaN(v) {
		return missingColor
	}
	if len(cs.stops) == 1 {
		return cs.stops[0]
	}
	t := clamp01((v - cs.lo) / (cs.hi - cs.lo))
	segments := float64(len(cs.stops) - 1)
	i := int(math.Floor(t * segments))
	if i >= len(cs.stops)-1 {
		return cs.stops[len(cs.stops)-1]
	}
	frac := t*segments - float64(i)
	if frac == 0 {
		return cs.stops[i]
	}
	return cs.stops[i].BlendLab(cs.stops[i+1], frac).Clamped()
}

// Banded splits its domain into equal-width bands, one flat colour per band,
// so there is never any intermediate shading.
type Banded struct {
	colors []colorful.Color
	lo, hi float64
}

// NewBanded returns a scale with one band per palette colour over [lo, hi].
func NewBanded(palette []string, lo, hi float64) (*Banded, error) {
	colors, err := parsePalette(palette)
	if err != nil {
		return nil, err
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &Banded{colors: colors, lo: lo, hi: hi}, nil
}

func (bs *Banded) Domain() (float64, float64) { return bs.lo, bs.hi }

func (bs *Banded) Discrete() bool { return true }

func (bs *Banded) Color(v float64) colorful.Color {
	i := bs.Band(v)
	if i < 0 {
		return missingColor
	}
	return bs.colors[i]
}

// Band returns the index of the band holding v, or -1 for NaN.
func (bs *Banded) Band(v float64) int {
	if math.IsNaN(v) {
		return -1
	}
	n := len(bs.colors)
	i := int(math.Floor(clamp01((v-bs.lo)/(bs.hi-bs.lo)) * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// BandColor returns the colour of band i.
func (bs *Banded) BandColor(i int) colorful.Color {
	return bs.colors[i]
}

// Bands returns the number of bands.
func (bs *Banded) Bands() int {
	return len(bs.colors)
}

// BandCenter returns the value at the middle of band i.
func (bs *Banded) BandCenter(i int) float64 {
	width := (bs.hi - bs.lo) / float64(len(bs.colors))
	return bs.lo + width*(float64(i)+0.5)
}

// Hex formats a colour for html and svg attributes.
func Hex(c colorful.Color) string {
	return c.Hex()
}

// Contrast returns black or white, whichever reads better on bg.
func Contrast(bg colorful.Color) string {
	if l, _, _ := bg.Lab(); l > 0.6 {
		return "#000000"
	}
	return "#ffffff"
}

// Samples returns n colours evenly spaced over the scale's domain, lowest first.
// Views use these to draw colorbars.
func Samples(scale ColorScale, n int) []colorful.Color {
	lo, hi := scale.Domain()
	out := make([]colorful.Color, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = scale.Color(lo + t*(hi-lo))
	}
	return out
}

func parsePalette(palette []string) ([]colorful.Color, error) {
	if len(palette) == 0 {
		return nil, ErrEmptyPalette
	}
	colors := make([]colorful.Color, len(palette))
	for i, hex := range palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, err
		}
		colors[i] = c
	}
	return colors, nil
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
