package heatmap_views

import (
	"fmt"
	"html/template"
	"strconv"

	"blackjackviz/projection"
	"blackjackviz/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Colorbar is an svg colour legend: a column of swatches with labelled ticks.
type Colorbar struct {
	id      string
	index   int
	updates <-chan []fastview.EleUpdate
}

// NewColorbar returns a view of the figure colorbar at index.
func NewColorbar(
	done <-chan struct{},
	index int,
	figures <-chan FigureModel,
) (cb *Colorbar) {
	cb = &Colorbar{
		id:    fmt.Sprintf("colorbar%d", index),
		index: index,
	}
	cb.updates = channerics.Convert(done, figures, cb.onUpdate)
	return
}

func (cb *Colorbar) Updates() <-chan []fastview.EleUpdate {
	return cb.updates
}

// onUpdate recolours the swatches and moves and relabels the ticks, since a
// continuous scale's domain follows the data.
func (cb *Colorbar) onUpdate(fm FigureModel) (ops []fastview.EleUpdate) {
	if cb.index >= len(fm.Colorbars) {
		return nil
	}

	bar := fm.Colorbars[cb.index]
	for i, stop := range bar.Stops {
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("%s-stop-%d", cb.id, i),
			Ops:   []fastview.Op{{Key: "fill", Value: stop.Fill}},
		})
	}
	for i, tick := range bar.Ticks {
		ops = append(ops, fastview.EleUpdate{
			EleId: fmt.Sprintf("%s-tick-%d", cb.id, i),
			Ops: []fastview.Op{
				{Key: "y", Value: strconv.Itoa(tick.Y)},
				{Key: "textContent", Value: tick.Label},
			},
		})
	}
	return
}

// Parse adds the colorbar's svg template. The template expects a FigureModel.
func (cb *Colorbar) Parse(
	t *template.Template,
) (name string, err error) {
	name = cb.id
	height := projection.Rows * cellDim
	_, err = t.Parse(fmt.Sprintf(`{{ define "%[1]s" }}
		{{ with index .Colorbars %[2]d }}
		<svg id="%[1]s" xmlns="http://www.w3.org/2000/svg"
			width="%[3]d" height="%[4]d"
			style="shape-rendering: crispEdges; font-family: sans-serif; font-size: 12px;">
			<g transform="translate(4 %[5]d)">
			{{ range $i, $stop := .Stops }}
				<rect id="%[1]s-stop-{{ $i }}" x="0" y="{{ $stop.Y }}"
					width="%[6]d" height="%[7]d" fill="{{ $stop.Fill }}"/>
			{{ end }}
			{{ range $i, $tick := .Ticks }}
				<text id="%[1]s-tick-{{ $i }}" x="%[8]d" y="{{ $tick.Y }}" dominant-baseline="central">{{ $tick.Label }}</text>
			{{ end }}
			</g>
		</svg>
		{{ end }}
		{{ end }}`,
		cb.id, cb.index,
		barWidth+60, marginTop+marginBottom+height,
		marginTop,
		barWidth, height/barStops,
		barWidth+6))
	return
}
