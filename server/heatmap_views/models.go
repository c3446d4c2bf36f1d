// heatmap_views contains svg views of figure panels and colorbars, derived from
// the FigureModel view-model.
package heatmap_views

import (
	"strconv"

	"blackjackviz/figure"
)

// Pixel layout shared by the views.
const (
	cellDim      = 40
	marginLeft   = 60
	marginTop    = 40
	marginBottom = 60
	marginRight  = 10
	barWidth     = 20
	// Number of swatches a colorbar is drawn with.
	barStops = 20
	// Fill opacity of cells no mapping entry was written to.
	unsetOpacity = "0.35"
)

// FigureModel is a figure flattened into values immediately usable as view
// parameters: pixel positions, hex fills and label text.
type FigureModel struct {
	Kind      string
	Title     string
	Panels    []PanelModel
	Colorbars []ColorbarModel
}

type PanelModel struct {
	Title  string
	XLabel string
	YLabel string
	XTicks []string
	YTicks []string
	// Cells[r][c] is drawn at row r from the top, matching the grid.
	Cells [][]Cell
}

// Cell is one heatmap square and its label, in svg coordinates.
type Cell struct {
	Row, Col int
	X, Y     int
	Fill     string
	TextFill string
	Text     string
	Opacity  string
}

type ColorbarModel struct {
	// Stops are drawn top to bottom, high values first.
	Stops []Stop
	Ticks []TickModel
}

type Stop struct {
	Y    int
	Fill string
}

type TickModel struct {
	Y     int
	Label string
}

// Convert transforms a figure into its view-model.
func Convert(fig figure.Figure) FigureModel {
	fm := FigureModel{
		Kind:  fig.Kind,
		Title: fig.Title,
	}
	for i := range fig.Panels {
		fm.Panels = append(fm.Panels, convertPanel(&fig.Panels[i]))
	}
	rows := 0
	if len(fig.Panels) > 0 {
		rows = len(fig.Panels[0].YTicks)
	}
	for i := range fig.Colorbars {
		fm.Colorbars = append(fm.Colorbars, convertColorbar(&fig.Colorbars[i], rows))
	}
	return fm
}

func convertPanel(panel *figure.Panel) PanelModel {
	pm := PanelModel{
		Title:  panel.Title,
		XLabel: panel.XLabel,
		YLabel: panel.YLabel,
		XTicks: panel.XTicks,
		YTicks: panel.YTicks,
		Cells:  make([][]Cell, len(panel.YTicks)),
	}
	for r := range pm.Cells {
		pm.Cells[r] = make([]Cell, len(panel.XTicks))
		for c := range pm.Cells[r] {
			v := panel.Grid.At(r, c)
			bg := panel.Scale.Color(v)
			cell := Cell{
				Row:      r,
				Col:      c,
				X:        c * cellDim,
				Y:        r * cellDim,
				Fill:     figure.Hex(bg),
				TextFill: figure.Contrast(bg),
				Text:     cellText(panel.Scale, v),
				Opacity:  "1",
			}
			if panel.Missing(r, c) {
				cell.Opacity = unsetOpacity
				cell.Text = ""
			}
			pm.Cells[r][c] = cell
		}
	}
	return pm
}

func cellText(scale figure.ColorScale, v float64) string {
	if scale.Discrete() {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// convertColorbar lays the colorbar alongside a panel of the passed row count.
func convertColorbar(cb *figure.Colorbar, rows int) ColorbarModel {
	height := rows * cellDim
	stopHeight := height / barStops
	lo, hi := cb.Scale.Domain()

	cm := ColorbarModel{}
	for i := 0; i < barStops; i++ {
		// Sample the middle of each swatch, top swatch holding the highest values.
		t := 1 - (float64(i)+0.5)/barStops
		cm.Stops = append(cm.Stops, Stop{
			Y:    i * stopHeight,
			Fill: figure.Hex(cb.Scale.Color(lo + t*(hi-lo))),
		})
	}
	for _, tick := range cb.Ticks {
		t := (tick.Position - lo) / (hi - lo)
		cm.Ticks = append(cm.Ticks, TickModel{
			Y:     int(float64(height) * (1 - t)),
			Label: tick.Label,
		})
	}
	return cm
}
