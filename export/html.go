// export writes figures to standalone html pages of echarts heatmaps, for when
// no interactive display is available.
package export

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"blackjackviz/figure"
	"blackjackviz/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/golang/glog"
)

// Colour stops handed to a continuous echarts visual map. Discrete scales use
// one piece per band instead.
const continuousStops = 9

// HTMLFile writes each displayed figure to <Dir>/<kind>.html.
type HTMLFile struct {
	Dir string
}

// Path returns the file a figure of the passed kind is written to.
func (hf HTMLFile) Path(kind string) string {
	return filepath.Join(hf.Dir, kind+".html")
}

func (hf HTMLFile) Display(ctx context.Context, fig figure.Figure) (err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	if err = os.MkdirAll(hf.Dir, 0o755); err != nil {
		return fmt.Errorf("export dir: %w", err)
	}

	path := hf.Path(fig.Kind)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", fig.Kind, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("export %s: %w", fig.Kind, closeErr)
		}
	}()

	if err = WriteHTML(f, fig); err != nil {
		return
	}
	glog.Infof("wrote %s figure to %s", fig.Kind, path)
	return
}

// WriteHTML renders the figure as a page of side-by-side heatmaps. Chart widths
// follow the figure's layout regions; a colorbar in a region of its own is drawn
// by the chart to its left, widened by that region.
func WriteHTML(w io.Writer, fig figure.Figure) error {
	page := components.NewPage()
	page.PageTitle = fig.Title
	page.SetLayout(components.PageFlexLayout)

	widths := fig.RegionWidths(fig.Width)
	for i := range fig.Panels {
		panel := &fig.Panels[i]
		width := widths[i]

		var colorbar *figure.Colorbar
		if panel.Colorbar != figure.NoColorbar {
			colorbar = &fig.Colorbars[panel.Colorbar]
			if colorbar.Region >= 0 && colorbar.Region < len(widths) {
				width += widths[colorbar.Region]
			}
		}
		page.AddCharts(heatmap(fig.Title, panel, colorbar, width, fig.Height))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render %s page: %w", fig.Kind, err)
	}
	return nil
}

// heatmap builds one panel's chart. A nil colorbar hides the visual map but
// still uses it to colour the cells.
func heatmap(
	figTitle string,
	panel *figure.Panel,
	colorbar *figure.Colorbar,
	width, height int,
) *charts.HeatMap {
	// Cells are plotted on [0, 1] through the scale domain; echarts drops a
	// zero min or max from its options.
	visualMap := opts.VisualMap{
		Min:   0,
		Max:   1,
		Show:  opts.Bool(colorbar != nil),
		Right: "0",
		Top:   "center",
	}
	if banded, ok := panel.Scale.(*figure.Banded); ok {
		visualMap.Type = "piecewise"
		visualMap.Pieces = pieces(banded, colorbar)
	} else {
		visualMap.Type = "continuous"
		visualMap.Calculable = opts.Bool(true)
		visualMap.InRange = &opts.VisualMapInRange{Color: stops(panel.Scale)}
		if colorbar != nil && len(colorbar.Ticks) > 0 {
			// echarts labels the high end first.
			ticks := colorbar.Ticks
			visualMap.Text = []string{ticks[len(ticks)-1].Label, ticks[0].Label}
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: figTitle,
			Width:     fmt.Sprintf("%dpx", width),
			Height:    fmt.Sprintf("%dpx", height),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    panel.Title,
			Subtitle: figTitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      panel.XLabel,
			Type:      "category",
			Data:      panel.XTicks,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      panel.YLabel,
			Type:      "category",
			Data:      bottomUp(panel.YTicks),
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(visualMap),
	)
	hm.SetXAxis(panel.XTicks).AddSeries(panel.Title, cells(panel))
	return hm
}

// cells lists every grid cell as [x, y, t], t being the cell value's position
// in the scale domain. The value itself is kept as the item name for tooltips.
// Category y axes grow upwards, so grid row 0 is the last y category.
func cells(panel *figure.Panel) []opts.HeatMapData {
	lo, hi := panel.Scale.Domain()
	rows := len(panel.YTicks)
	data := make([]opts.HeatMapData, 0, rows*len(panel.XTicks))
	for r := 0; r < rows; r++ {
		for c := range panel.XTicks {
			v := panel.Grid.At(r, c)
			item := opts.HeatMapData{
				Name:  strconv.FormatFloat(v, 'f', 2, 64),
				Value: [3]interface{}{c, rows - 1 - r, normalize(v, lo, hi)},
			}
			switch {
			case math.IsNaN(v):
				// "-" is echarts' empty value; NaN itself cannot be encoded as json.
				item.Name = "missing"
				item.Value = [3]interface{}{c, rows - 1 - r, "-"}
			case !panel.Grid.IsSet(r, c):
				item.Name = "unset"
			}
			data = append(data, item)
		}
	}
	return data
}

func normalize(v, lo, hi float64) float64 {
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// stops samples a continuous scale for an echarts colour ramp.
func stops(scale figure.ColorScale) []string {
	hexes := []string{}
	for _, c := range figure.Samples(scale, continuousStops) {
		hexes = append(hexes, figure.Hex(c))
	}
	return hexes
}

// pieces gives each band of a discrete scale its own flat-coloured piece over
// the normalized domain, labelled by the colorbar tick inside it.
func pieces(scale *figure.Banded, colorbar *figure.Colorbar) []opts.Piece {
	n := scale.Bands()
	labels := make([]string, n)
	if colorbar != nil {
		for _, tick := range colorbar.Ticks {
			if i := scale.Band(tick.Position); i >= 0 {
				labels[i] = tick.Label
			}
		}
	}

	out := make([]opts.Piece, n)
	for i := range out {
		out[i] = opts.Piece{
			Min:   float32(i) / float32(n),
			Max:   float32(i+1) / float32(n),
			Label: labels[i],
			Color: figure.Hex(scale.BandColor(i)),
		}
	}
	return out
}

func bottomUp(ticks []string) []string {
	out := make([]string, 0, len(ticks))
	for _, i := range models.Rev(len(ticks)) {
		out = append(out, ticks[i])
	}
	return out
}
