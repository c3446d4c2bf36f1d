package root_view

import (
	"bytes"
	"context"
	"html/template"
	"testing"
	"time"

	"blackjackviz/figure"
	"blackjackviz/models"
	"blackjackviz/plot"
	"blackjackviz/server/fastview"
	"blackjackviz/server/heatmap_views"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRootView(t *testing.T) {
	Convey("Given the root view of a policy figure", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fig, err := plot.Policy(models.ThresholdPolicy(17))
		So(err, ShouldBeNil)
		figures := make(chan figure.Figure)
		rv, err := NewRootView(ctx, fig, figures)
		So(err, ShouldBeNil)

		Convey("Panels and the shared colorbar get their own regions", func() {
			So(rv.regions, ShouldResemble, [][]string{{"panel0"}, {"panel1"}, {"colorbar0"}})
			So(rv.ratios, ShouldResemble, []float64{6, 6, 0.5})
		})

		Convey("The page renders every view and the websocket bootstrap", func() {
			tmpl := template.New("index.html")
			name, err := rv.Parse(tmpl)
			So(err, ShouldBeNil)
			_, err = tmpl.Parse(`{{ template "` + name + `" . }}`)
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(tmpl.Execute(&buf, heatmap_views.Convert(fig)), ShouldBeNil)
			page := buf.String()
			So(page, ShouldContainSubstring, figure.PolicyTitle)
			So(page, ShouldContainSubstring, `id="panel0"`)
			So(page, ShouldContainSubstring, `id="panel1"`)
			So(page, ShouldContainSubstring, `id="colorbar0"`)
			So(page, ShouldContainSubstring, "/ws/policy")
			So(page, ShouldContainSubstring, "flex: 0.5 1 0")
		})

		Convey("A new figure yields updates for every view, batched together", func() {
			figures <- fig
			got := map[string]bool{}
			deadline := time.After(2 * time.Second)
			for !(got["panel0-9-9-cell"] && got["panel1-9-9-cell"] && got["colorbar0-tick-1"]) {
				select {
				case updates := <-rv.Updates():
					for _, u := range updates {
						got[u.EleId] = true
					}
				case <-deadline:
					So("timed out", ShouldBeEmpty)
					return
				}
			}
			So(len(got), ShouldEqual, 2*200+20+2)
		})
	})

	Convey("Given a value figure", t, func() {
		fig, err := plot.Values(models.ValueFunction{})
		So(err, ShouldBeNil)

		Convey("Each colorbar shares its panel's region", func() {
			So(arrange(fig), ShouldResemble, [][]string{{"panel0", "colorbar0"}, {"panel1", "colorbar1"}})
			So(regionRatios(fig), ShouldResemble, []float64{1, 1})
		})
	})
}

func TestBatchify(t *testing.T) {
	Convey("Given a batching pipeline", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		source := make(chan []fastview.EleUpdate)
		batches := batchify(ctx.Done(), source, 50*time.Millisecond)

		Convey("Updates to the same element within a batch keep only the latest", func() {
			source <- []fastview.EleUpdate{{EleId: "a", Ops: []fastview.Op{{Key: "fill", Value: "red"}}}}
			source <- []fastview.EleUpdate{{EleId: "a", Ops: []fastview.Op{{Key: "fill", Value: "blue"}}}}

			select {
			case batch := <-batches:
				So(batch, ShouldResemble, []fastview.EleUpdate{{EleId: "a", Ops: []fastview.Op{{Key: "fill", Value: "blue"}}}})
			case <-time.After(time.Second):
				So("timed out", ShouldBeEmpty)
			}
		})

		Convey("A pending batch is flushed when the source closes", func() {
			source <- []fastview.EleUpdate{{EleId: "b"}}
			close(source)
			batch, ok := <-batches
			So(ok, ShouldBeTrue)
			So(batch[0].EleId, ShouldEqual, "b")
		})
	})
}
