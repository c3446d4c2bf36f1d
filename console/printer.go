// console prints figures to a terminal as coloured grids, one block per panel.
package console

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"blackjackviz/figure"
	"blackjackviz/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	cellWidth   = 7
	tickWidth   = 4
	swatchWidth = 3
	// Number of colour samples drawn in a colorbar.
	colorbarSamples = 10
	unsetMarker     = "."
)

// Printer writes figures to w. Colour output depends on what w supports; a
// plain buffer receives uncoloured text.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
	}
}

// Display prints the figure: its title, then the panels side by side with each
// colorbar either under its panel or in its own layout region.
func (p *Printer) Display(ctx context.Context, fig figure.Figure) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	regions := make([]string, fig.Regions())
	for i := range fig.Panels {
		panel := &fig.Panels[i]
		block := p.panel(panel)
		if panel.Colorbar != figure.NoColorbar && fig.Colorbars[panel.Colorbar].Region == figure.NoColorbar {
			block = lipgloss.JoinVertical(lipgloss.Left, block, "", p.hColorbar(&fig.Colorbars[panel.Colorbar]))
		}
		regions[i] = block
	}
	for i := range fig.Colorbars {
		cb := &fig.Colorbars[i]
		if cb.Region >= 0 && cb.Region < len(regions) {
			regions[cb.Region] = p.vColorbar(cb)
		}
	}

	gap := p.renderer.NewStyle().PaddingRight(4)
	for i := range regions[:len(regions)-1] {
		regions[i] = gap.Render(regions[i])
	}

	title := p.renderer.NewStyle().Bold(true).MarginBottom(1).Render(fig.Title)
	out := lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, regions...))
	if _, err := fmt.Fprintln(p.w, out); err != nil {
		return fmt.Errorf("print %s figure: %w", fig.Kind, err)
	}
	return nil
}

// panel renders one heatmap with its tick labels and axis labels.
func (p *Printer) panel(panel *figure.Panel) string {
	var sb strings.Builder
	sb.WriteString(p.renderer.NewStyle().Underline(true).Render(panel.Title))
	sb.WriteString("\n")
	sb.WriteString(panel.YLabel)
	sb.WriteString("\n")

	for r, ytick := range panel.YTicks {
		sb.WriteString(fmt.Sprintf("%*s ", tickWidth-1, ytick))
		for c := range panel.XTicks {
			sb.WriteString(p.cell(panel, r, c))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat(" ", tickWidth))
	for _, xtick := range panel.XTicks {
		sb.WriteString(center(xtick, cellWidth))
	}
	sb.WriteString("\n")
	sb.WriteString(center(panel.XLabel, tickWidth+cellWidth*len(panel.XTicks)))
	return sb.String()
}

// cell renders a single coloured cell, with text chosen to stay legible on the
// cell's background.
func (p *Printer) cell(panel *figure.Panel, r, c int) string {
	v := panel.Grid.At(r, c)
	bg := panel.Scale.Color(v)

	text := unsetMarker
	if !panel.Missing(r, c) {
		text = cellText(panel.Scale, v)
	}

	return p.renderer.NewStyle().
		Width(cellWidth).
		Align(lipgloss.Center).
		Background(lipgloss.Color(figure.Hex(bg))).
		Foreground(lipgloss.Color(figure.Contrast(bg))).
		Render(text)
}

func cellText(scale figure.ColorScale, v float64) string {
	if banded, ok := scale.(*figure.Banded); ok {
		return models.Action(banded.Band(v)).String()[:1]
	}
	return format2x2(v)
}

// format2x2 prints a value with two integer and two fractional digits.
func format2x2(x float64) string {
	if x < 0 {
		return "-" + fmt.Sprintf("%05.2f", -x)
	}
	return fmt.Sprintf("%05.2f", x)
}

// hColorbar renders a colorbar as a row of swatches with tick labels beneath.
func (p *Printer) hColorbar(cb *figure.Colorbar) string {
	var swatches strings.Builder
	for _, c := range figure.Samples(cb.Scale, colorbarSamples) {
		swatches.WriteString(p.swatch(c))
	}

	labels := []rune(strings.Repeat(" ", colorbarSamples*swatchWidth+cellWidth))
	for _, tick := range cb.Ticks {
		at := sampleIndex(cb.Scale, tick.Position) * swatchWidth
		copy(labels[at:], []rune(tick.Label))
	}
	return swatches.String() + "\n" + strings.TrimRight(string(labels), " ")
}

// vColorbar renders a colorbar as a column of swatches, high values on top,
// with each tick label beside the swatch nearest its position.
func (p *Printer) vColorbar(cb *figure.Colorbar) string {
	samples := figure.Samples(cb.Scale, colorbarSamples)
	labels := make([]string, len(samples))
	for _, tick := range cb.Ticks {
		labels[sampleIndex(cb.Scale, tick.Position)] = tick.Label
	}

	// Align with the first heatmap row, below the panel title and y label.
	lines := []string{"", ""}
	for _, i := range models.Rev(len(samples)) {
		lines = append(lines, p.swatch(samples[i])+" "+labels[i])
	}
	return strings.Join(lines, "\n")
}

func (p *Printer) swatch(c colorful.Color) string {
	return p.renderer.NewStyle().
		Width(swatchWidth).
		Background(lipgloss.Color(figure.Hex(c))).
		Render("")
}

// sampleIndex returns the colorbar sample nearest to v.
func sampleIndex(scale figure.ColorScale, v float64) int {
	lo, hi := scale.Domain()
	t := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	return int(math.Round(t * float64(colorbarSamples-1)))
}

// center pads s on both sides to width.
func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
}
