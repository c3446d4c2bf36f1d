package heatmap_views

import (
	"fmt"
	"html/template"

	"blackjackviz/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Heatmap is an svg grid of coloured cells showing one panel of a figure.
type Heatmap struct {
	id      string
	index   int
	updates <-chan []fastview.EleUpdate
}

// NewHeatmap returns a view of the figure panel at index.
func NewHeatmap(
	done <-chan struct{},
	index int,
	figures <-chan FigureModel,
) (hm *Heatmap) {
	hm = &Heatmap{
		id:    fmt.Sprintf("panel%d", index),
		index: index,
	}
	hm.updates = channerics.Convert(done, figures, hm.onUpdate)
	return
}

func (hm *Heatmap) Updates() <-chan []fastview.EleUpdate {
	return hm.updates
}

func (hm *Heatmap) cellId(r, c int) string {
	return fmt.Sprintf("%s-%d-%d-cell", hm.id, r, c)
}

func (hm *Heatmap) textId(r, c int) string {
	return fmt.Sprintf("%s-%d-%d-text", hm.id, r, c)
}

// onUpdate returns the updates recolouring and relabelling every cell.
func (hm *Heatmap) onUpdate(fm FigureModel) (ops []fastview.EleUpdate) {
	if hm.index >= len(fm.Panels) {
		return nil
	}

	for _, row := range fm.Panels[hm.index].Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.EleUpdate{
					EleId: hm.cellId(cell.Row, cell.Col),
					Ops: []fastview.Op{
						{Key: "fill", Value: cell.Fill},
						{Key: "fill-opacity", Value: cell.Opacity},
					},
				},
				fastview.EleUpdate{
					EleId: hm.textId(cell.Row, cell.Col),
					Ops: []fastview.Op{
						{Key: "fill", Value: cell.TextFill},
						{Key: "textContent", Value: cell.Text},
					},
				})
		}
	}
	return
}

// Parse adds the panel's svg template. The template expects a FigureModel.
func (hm *Heatmap) Parse(
	t *template.Template,
) (name string, err error) {
	name = hm.id
	half := cellDim / 2
	_, err = t.Parse(fmt.Sprintf(`{{ define "%[1]s" }}
		{{ with index .Panels %[2]d }}
		{{ $rows := len .YTicks }}
		{{ $cols := len .XTicks }}
		{{ $height := mult $rows %[3]d }}
		{{ $width := mult $cols %[3]d }}
		<svg id="%[1]s" xmlns="http://www.w3.org/2000/svg"
			width="{{ add $width %[5]d }}"
			height="{{ add $height %[6]d }}"
			style="shape-rendering: crispEdges; font-family: sans-serif; font-size: 12px;">
			<text x="{{ add %[7]d (div $width 2) }}" y="20" text-anchor="middle" font-weight="bold">{{ .Title }}</text>
			<g transform="translate(%[7]d %[8]d)">
			{{ range $row := .Cells }}
				{{ range $cell := $row }}
				<rect id="%[1]s-{{ $cell.Row }}-{{ $cell.Col }}-cell"
					x="{{ $cell.X }}" y="{{ $cell.Y }}"
					width="%[3]d" height="%[3]d"
					fill="{{ $cell.Fill }}" fill-opacity="{{ $cell.Opacity }}"
					stroke="white" stroke-width="1"/>
				<text id="%[1]s-{{ $cell.Row }}-{{ $cell.Col }}-text"
					x="{{ add $cell.X %[4]d }}" y="{{ add $cell.Y %[4]d }}"
					fill="{{ $cell.TextFill }}" font-size="10px"
					text-anchor="middle" dominant-baseline="central">{{ $cell.Text }}</text>
				{{ end }}
			{{ end }}
			{{ range $i, $tick := .YTicks }}
				<text x="-6" y="{{ add (mult $i %[3]d) %[4]d }}" text-anchor="end" dominant-baseline="central">{{ $tick }}</text>
			{{ end }}
			{{ range $i, $tick := .XTicks }}
				<text x="{{ add (mult $i %[3]d) %[4]d }}" y="{{ add $height 16 }}" text-anchor="middle">{{ $tick }}</text>
			{{ end }}
				<text x="{{ div $width 2 }}" y="{{ add $height 40 }}" text-anchor="middle">{{ .XLabel }}</text>
				<text transform="translate(-40 {{ div $height 2 }}) rotate(-90)" text-anchor="middle">{{ .YLabel }}</text>
			</g>
		</svg>
		{{ end }}
		{{ end }}`,
		hm.id, hm.index, cellDim, half,
		marginLeft+marginRight, marginTop+marginBottom,
		marginLeft, marginTop))
	return
}
