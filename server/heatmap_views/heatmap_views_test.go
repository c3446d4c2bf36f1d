package heatmap_views

import (
	"bytes"
	"context"
	"html/template"
	"math"
	"testing"
	"time"

	"blackjackviz/figure"
	"blackjackviz/models"
	"blackjackviz/plot"
	"blackjackviz/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func policyModel(t *testing.T, stickAt int) FigureModel {
	t.Helper()
	fig, err := plot.Policy(models.ThresholdPolicy(stickAt))
	if err != nil {
		t.Fatal(err)
	}
	return Convert(fig)
}

func TestConvert(t *testing.T) {
	Convey("Given a converted policy figure", t, func() {
		fm := policyModel(t, 17)

		Convey("Its shape follows the figure", func() {
			So(fm.Kind, ShouldEqual, figure.PolicyKind)
			So(len(fm.Panels), ShouldEqual, 2)
			So(len(fm.Colorbars), ShouldEqual, 1)
			So(len(fm.Panels[0].Cells), ShouldEqual, 10)
			So(len(fm.Panels[0].Cells[0]), ShouldEqual, 10)
		})

		Convey("Cells are positioned top to bottom as in the grid", func() {
			cell := fm.Panels[1].Cells[9][3]
			So(cell.X, ShouldEqual, 3*cellDim)
			So(cell.Y, ShouldEqual, 9*cellDim)
		})

		Convey("Cells take one of the two policy colours", func() {
			So(fm.Panels[1].Cells[4][0].Fill, ShouldEqual, figure.PolicyColors[0])
			So(fm.Panels[1].Cells[5][0].Fill, ShouldEqual, figure.PolicyColors[1])
		})

		Convey("The colorbar is split evenly between the two colours", func() {
			stops := fm.Colorbars[0].Stops
			So(len(stops), ShouldEqual, barStops)
			So(stops[0].Fill, ShouldEqual, figure.PolicyColors[1])
			So(stops[barStops-1].Fill, ShouldEqual, figure.PolicyColors[0])
			So(fm.Colorbars[0].Ticks, ShouldResemble, []TickModel{
				{Y: 300, Label: "STICK"},
				{Y: 100, Label: "HIT"},
			})
		})
	})

	Convey("Given a sparse value figure", t, func() {
		fig, err := plot.Values(models.ValueFunction{{14, 3, true}: 0.42})
		So(err, ShouldBeNil)
		fm := Convert(fig)

		Convey("Written cells are labelled and opaque", func() {
			cell := fm.Panels[0].Cells[7][2]
			So(cell.Text, ShouldEqual, "0.42")
			So(cell.Opacity, ShouldEqual, "1")
		})

		Convey("Unset cells are faded and unlabelled", func() {
			cell := fm.Panels[0].Cells[0][0]
			So(cell.Text, ShouldEqual, "")
			So(cell.Opacity, ShouldEqual, unsetOpacity)
		})
	})

	Convey("Given a value figure holding NaN", t, func() {
		fig, err := plot.Values(models.ValueFunction{
			{14, 3, true}: math.NaN(),
			{15, 3, true}: 0.5,
		})
		So(err, ShouldBeNil)
		fm := Convert(fig)

		Convey("The NaN cell is drawn faded in the missing colour", func() {
			cell := fm.Panels[0].Cells[7][2]
			So(cell.Fill, ShouldEqual, figure.MissingColor)
			So(cell.Text, ShouldEqual, "")
			So(cell.Opacity, ShouldEqual, unsetOpacity)
			So(fm.Panels[0].Cells[6][2].Text, ShouldEqual, "0.50")
		})
	})
}

func TestViews(t *testing.T) {
	Convey("Given the views of a policy figure", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		figures := make(chan FigureModel, 1)
		hm := NewHeatmap(ctx.Done(), 1, figures)
		fm := policyModel(t, 17)

		Convey("An update recolours every cell of its panel", func() {
			figures <- fm
			select {
			case updates := <-hm.Updates():
				So(len(updates), ShouldEqual, 2*100)
				So(updates[0].EleId, ShouldEqual, "panel1-0-0-cell")
				So(updates[0].Ops[0], ShouldResemble, fastview.Op{Key: "fill", Value: figure.PolicyColors[0]})
				So(updates[1].EleId, ShouldEqual, "panel1-0-0-text")
			case <-time.After(time.Second):
				So("timed out", ShouldBeEmpty)
			}
		})

		Convey("A colorbar update moves and relabels its ticks", func() {
			cb := &Colorbar{id: "colorbar0", index: 0}
			updates := cb.onUpdate(fm)
			So(len(updates), ShouldEqual, barStops+2)
			last := updates[len(updates)-1]
			So(last.EleId, ShouldEqual, "colorbar0-tick-1")
			So(last.Ops, ShouldResemble, []fastview.Op{{Key: "y", Value: "100"}, {Key: "textContent", Value: "HIT"}})
		})

		Convey("A panel index beyond the figure yields no updates", func() {
			out := &Heatmap{id: "panel5", index: 5}
			So(out.onUpdate(fm), ShouldBeEmpty)
		})
	})
}

func TestTemplates(t *testing.T) {
	Convey("Given the parsed panel and colorbar templates", t, func() {
		fm := policyModel(t, 17)
		root := template.New("page").Funcs(fastview.FuncMap())

		hm := &Heatmap{id: "panel1", index: 1}
		cb := &Colorbar{id: "colorbar0", index: 0}
		hmName, err := hm.Parse(root)
		So(err, ShouldBeNil)
		cbName, err := cb.Parse(root)
		So(err, ShouldBeNil)
		_, err = root.Parse(`{{ template "` + hmName + `" . }}{{ template "` + cbName + `" . }}`)
		So(err, ShouldBeNil)

		Convey("Executing them draws every element the updates address", func() {
			var buf bytes.Buffer
			So(root.Execute(&buf, fm), ShouldBeNil)
			page := buf.String()

			So(page, ShouldContainSubstring, `id="panel1"`)
			So(page, ShouldContainSubstring, `id="panel1-9-9-cell"`)
			So(page, ShouldContainSubstring, `id="panel1-0-0-text"`)
			So(page, ShouldContainSubstring, `id="colorbar0-stop-19"`)
			So(page, ShouldContainSubstring, `id="colorbar0-tick-1"`)
			So(page, ShouldContainSubstring, "No usable ace")
			So(page, ShouldContainSubstring, "Dealer showing")
			So(page, ShouldContainSubstring, figure.PolicyColors[1])
			So(page, ShouldContainSubstring, "STICK")
		})
	})
}
