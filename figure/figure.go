// figure builds side-by-side heatmap figures of projected blackjack grids.
// A Figure is a plain value: backends (console, html export, the live server)
// draw it, and tests inspect it directly.
package figure

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"blackjackviz/models"
	"blackjackviz/projection"
)

// Figure kinds, also used as file names and server routes.
const (
	ValuesKind = models.ValuesKind
	PolicyKind = models.PolicyKind
)

// Labels shared by both figures.
const (
	ValuesTitle   = "Approximate State-Value Functions"
	PolicyTitle   = "Approximate Optimal Policy"
	AceTitle      = "Usable ace"
	NoAceTitle    = "No usable ace"
	DealerLabel   = "Dealer showing"
	PlayerLabel   = "Player sum"
	NoColorbar    = -1
	defaultWidth  = 1200
	defaultHeight = 600
)

// ErrEmptyPalette is returned when a colour scale is built without colours.
var ErrEmptyPalette = errors.New("palette has no colours")

// Figure is one titled row of layout regions holding heatmap panels and colorbars.
type Figure struct {
	Kind  string
	Title string
	// Panels are drawn left to right; panel i occupies layout region i.
	Panels []Panel
	// Colorbars occupy the regions named by their Region field, or sit
	// beside their panel when Region is NoColorbar.
	Colorbars []Colorbar
	// WidthRatios gives the relative widths of the layout regions. Empty means
	// one equal-width region per panel.
	WidthRatios []float64
	// Width and Height are the nominal figure size in pixels.
	Width, Height int
}

// Panel is a single heatmap.
type Panel struct {
	Title  string
	XLabel string
	YLabel string
	// XTicks label the columns left to right, YTicks the rows top to bottom.
	XTicks []string
	YTicks []string
	Grid   *projection.Grid
	Scale  ColorScale
	// Colorbar indexes Figure.Colorbars, or is NoColorbar.
	Colorbar int
}

// Colorbar is a colour legend for one scale.
type Colorbar struct {
	Scale  ColorScale
	Ticks  []Tick
	Region int
}

// Tick is a labelled position along a colorbar, in data units.
type Tick struct {
	Position float64
	Label    string
}

// Color returns the colour of a panel cell.
func (p *Panel) Color(r, c int) string {
	return Hex(p.Scale.Color(p.Grid.At(r, c)))
}

// Missing reports whether a cell has no value worth labelling: nothing was
// written to it, or it holds NaN.
func (p *Panel) Missing(r, c int) bool {
	return !p.Grid.IsSet(r, c) || math.IsNaN(p.Grid.At(r, c))
}

// Regions returns the number of layout regions.
func (f *Figure) Regions() int {
	if len(f.WidthRatios) > 0 {
		return len(f.WidthRatios)
	}
	return len(f.Panels)
}

// RegionWidths splits total across the layout regions per the width ratios.
func (f *Figure) RegionWidths(total int) []int {
	n := f.Regions()
	widths := make([]int, n)
	if len(f.WidthRatios) == 0 {
		for i := range widths {
			widths[i] = total / n
		}
		return widths
	}

	sum := 0.0
	for _, r := range f.WidthRatios {
		sum += r
	}
	for i, r := range f.WidthRatios {
		widths[i] = int(float64(total) * r / sum)
	}
	return widths
}

// dealerTicks labels the columns 1..10.
func dealerTicks() []string {
	ticks := make([]string, projection.Cols)
	for c := range ticks {
		ticks[c] = strconv.Itoa(projection.DealerCard(c))
	}
	return ticks
}

// playerTicks labels the rows 21..12, the reverse of ascending sums, matching
// the flipped rows of the projection.
func playerTicks() []string {
	ticks := make([]string, projection.Rows)
	for r := range ticks {
		ticks[r] = strconv.Itoa(projection.PlayerSum(r))
	}
	return ticks
}

func newPanel(title string, grid *projection.Grid, scale ColorScale, colorbar int) Panel {
	return Panel{
		Title:    title,
		XLabel:   DealerLabel,
		YLabel:   PlayerLabel,
		XTicks:   dealerTicks(),
		YTicks:   playerTicks(),
		Grid:     grid,
		Scale:    scale,
		Colorbar: colorbar,
	}
}

// Options configure the renderer.
type Options struct {
	ValuePalette  []string
	PolicyPalette []string
	Width, Height int
}

// DefaultOptions returns the YlGnBu value palette, the stick/hit policy colours
// and a 1200x600 figure.
func DefaultOptions() Options {
	return Options{
		ValuePalette:  YlGnBu,
		PolicyPalette: PolicyColors,
		Width:         defaultWidth,
		Height:        defaultHeight,
	}
}

// Renderer turns projected grids into figures.
type Renderer struct {
	opts Options
}

// NewRenderer validates the options' palettes and returns a renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if len(opts.ValuePalette) == 0 {
		opts.ValuePalette = def.ValuePalette
	}
	if len(opts.PolicyPalette) == 0 {
		opts.PolicyPalette = def.PolicyPalette
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if len(opts.PolicyPalette) != 2 {
		return nil, fmt.Errorf("policy palette needs 2 colours, got %d", len(opts.PolicyPalette))
	}
	// Parse once up front so rendering cannot fail on a bad colour.
	if _, err := parsePalette(opts.ValuePalette); err != nil {
		return nil, fmt.Errorf("value palette: %w", err)
	}
	if _, err := parsePalette(opts.PolicyPalette); err != nil {
		return nil, fmt.Errorf("policy palette: %w", err)
	}
	return &Renderer{opts: opts}, nil
}

var defaultRenderer, _ = NewRenderer(DefaultOptions())

// RenderValue draws the value figure with the default options.
func RenderValue(ace, noAce *projection.Grid) Figure {
	return defaultRenderer.RenderValue(ace, noAce)
}

// RenderPolicy draws the policy figure with the default options.
func RenderPolicy(ace, noAce *projection.Grid) Figure {
	return defaultRenderer.RenderPolicy(ace, noAce)
}

// RenderValue returns the two-panel state-value figure. Each panel has its own
// continuous scale over its own data range, and its own colorbar.
func (rd *Renderer) RenderValue(ace, noAce *projection.Grid) Figure {
	fig := Figure{
		Kind:   ValuesKind,
		Title:  ValuesTitle,
		Width:  rd.opts.Width,
		Height: rd.opts.Height,
	}

	for i, g := range []*projection.Grid{ace, noAce} {
		lo, hi := g.Range()
		// Palette was validated by NewRenderer.
		scale, _ := NewContinuous(rd.opts.ValuePalette, lo, hi)
		fig.Colorbars = append(fig.Colorbars, Colorbar{
			Scale:  scale,
			Ticks:  continuousTicks(scale),
			Region: NoColorbar,
		})
		fig.Panels = append(fig.Panels, newPanel(panelTitle(i), g, scale, i))
	}
	return fig
}

// RenderPolicy returns the two-panel policy figure. Both panels share a two-band
// scale over [0, 1] and a single colorbar in a narrow third region, with ticks
// at the band centres labelled STICK and HIT.
func (rd *Renderer) RenderPolicy(ace, noAce *projection.Grid) Figure {
	scale, _ := NewBanded(rd.opts.PolicyPalette, float64(models.Stick), float64(models.Hit))

	colorbar := Colorbar{Scale: scale, Region: 2}
	for i := 0; i < scale.Bands(); i++ {
		colorbar.Ticks = append(colorbar.Ticks, Tick{
			Position: scale.BandCenter(i),
			Label:    models.Action(i).String(),
		})
	}

	return Figure{
		Kind:  PolicyKind,
		Title: PolicyTitle,
		Panels: []Panel{
			newPanel(AceTitle, ace, scale, NoColorbar),
			newPanel(NoAceTitle, noAce, scale, 0),
		},
		Colorbars:   []Colorbar{colorbar},
		WidthRatios: []float64{6, 6, 0.5},
		Width:       rd.opts.Width,
		Height:      rd.opts.Height,
	}
}

func panelTitle(i int) string {
	if i == 0 {
		return AceTitle
	}
	return NoAceTitle
}

// continuousTicks labels the ends and middle of a continuous scale.
func continuousTicks(scale ColorScale) []Tick {
	lo, hi := scale.Domain()
	ticks := make([]Tick, 0, 3)
	for _, v := range []float64{lo, (lo + hi) / 2, hi} {
		ticks = append(ticks, Tick{Position: v, Label: strconv.FormatFloat(v, 'f', 2, 64)})
	}
	return ticks
}
