package root_view

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"blackjackviz/figure"
	"blackjackviz/server/fastview"
	"blackjackviz/server/heatmap_views"

	channerics "github.com/niceyeti/channerics/channels"
)

// batchRate is how long element updates are collected before being sent on.
const batchRate = time.Millisecond * 20

// RootView is the page of one figure: the container for its panel and colorbar
// views, the wiring for their channels, and the websocket bootstrap code.
type RootView struct {
	kind    string
	views   []fastview.ViewComponent
	regions [][]string // view template names per layout region
	ratios  []float64
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds a view per panel and per colorbar of the passed figure.
// Later figures on the channel must have the same layout.
func NewRootView(
	ctx context.Context,
	layout figure.Figure,
	figures <-chan figure.Figure,
) (*RootView, error) {
	vb := fastview.NewViewBuilder[figure.Figure, heatmap_views.FigureModel]().
		WithContext(ctx).
		WithModel(figures, heatmap_views.Convert)
	for i := range layout.Panels {
		index := i
		vb.WithView(func(
			done <-chan struct{},
			models <-chan heatmap_views.FigureModel) fastview.ViewComponent {
			return heatmap_views.NewHeatmap(done, index, models)
		})
	}
	for i := range layout.Colorbars {
		index := i
		vb.WithView(func(
			done <-chan struct{},
			models <-chan heatmap_views.FigureModel) fastview.ViewComponent {
			return heatmap_views.NewColorbar(done, index, models)
		})
	}

	views, err := vb.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s views: %w", layout.Kind, err)
	}

	return &RootView{
		kind:    layout.Kind,
		views:   views,
		regions: arrange(layout),
		ratios:  regionRatios(layout),
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// arrange assigns view template names to layout regions. Views are named as
// heatmap_views names them: panel<i> and colorbar<i>. A colorbar without a
// region of its own follows its panel.
func arrange(fig figure.Figure) [][]string {
	regions := make([][]string, fig.Regions())
	for i, panel := range fig.Panels {
		regions[i] = append(regions[i], fmt.Sprintf("panel%d", i))
		if panel.Colorbar != figure.NoColorbar && fig.Colorbars[panel.Colorbar].Region == figure.NoColorbar {
			regions[i] = append(regions[i], fmt.Sprintf("colorbar%d", panel.Colorbar))
		}
	}
	for i, cb := range fig.Colorbars {
		if cb.Region >= 0 && cb.Region < len(regions) {
			regions[cb.Region] = append(regions[cb.Region], fmt.Sprintf("colorbar%d", i))
		}
	}
	return regions
}

func regionRatios(fig figure.Figure) []float64 {
	if len(fig.WidthRatios) > 0 {
		return fig.WidthRatios
	}
	ratios := make([]float64, fig.Regions())
	for i := range ratios {
		ratios[i] = 1
	}
	return ratios
}

// Updates returns the merged ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the page template, with websocket bootstrap code, and returns its
// name. It installs the func-map the child views depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(fastview.FuncMap())

	for _, vc := range rv.views {
		if _, err = vc.Parse(rt); err != nil {
			return
		}
	}

	// Regions are flex items grown in proportion to the figure's width ratios.
	var body strings.Builder
	for i, region := range rv.regions {
		ratio := strconv.FormatFloat(rv.ratios[i], 'f', -1, 64)
		body.WriteString(`<div style="flex: ` + ratio + ` 1 0; min-width: 0; display: flex; align-items: flex-start;">`)
		for _, tname := range region {
			body.WriteString(`{{ template "` + tname + `" . }}`)
		}
		body.WriteString(`</div>`)
	}

	// The main template bootstraps the rest: sets up client websocket and updates, aggregates views.
	name = "figure_" + rv.kind
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<title>{{ .Title }}</title>
			<!--The server pushes new figure data to the view via websocket.-->
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws/` + rv.kind + `");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body style="font-family: sans-serif;">
			<h2 style="text-align: center;">{{ .Title }}</h2>
			<div style="display: flex; width: 100%;">
			` + body.String() + `
			</div>
		</body>
	</html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchRate)
}

// batchify collects updates for at least rate before sending them, keeping only
// the latest update per ele-id. Updates arriving while a batch waits for the
// consumer are merged into it.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		var pending []fastview.EleUpdate
		ready := false
		ticker := channerics.NewTicker(done, rate)
		for {
			// Sending on a nil channel blocks, which disables the case until a
			// tick has passed with something to send.
			var out chan<- []fastview.EleUpdate
			if ready && len(pending) > 0 {
				out = output
			}

			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					if len(pending) > 0 {
						select {
						case output <- pending:
						case <-done:
						}
					}
					return
				}
				pending = fastview.Merge(pending, updates)
			case <-ticker:
				ready = true
			case out <- pending:
				pending = nil
				ready = false
			}
		}
	}()

	return output
}
