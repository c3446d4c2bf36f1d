package export

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"blackjackviz/figure"
	"blackjackviz/models"
	"blackjackviz/plot"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteHTML(t *testing.T) {
	Convey("Given a rendered policy figure", t, func() {
		fig, err := plot.Policy(models.ThresholdPolicy(18))
		So(err, ShouldBeNil)

		Convey("The page carries the titles, axes and both policy colours", func() {
			var buf bytes.Buffer
			So(WriteHTML(&buf, fig), ShouldBeNil)

			page := buf.String()
			So(page, ShouldContainSubstring, figure.PolicyTitle)
			So(page, ShouldContainSubstring, "Usable ace")
			So(page, ShouldContainSubstring, "No usable ace")
			So(page, ShouldContainSubstring, "Dealer showing")
			So(page, ShouldContainSubstring, "Player sum")
			So(page, ShouldContainSubstring, "STICK")
			So(page, ShouldContainSubstring, "HIT")
			So(page, ShouldContainSubstring, figure.PolicyColors[0])
			So(page, ShouldContainSubstring, figure.PolicyColors[1])
		})

		Convey("The policy visual map is split into two flat pieces", func() {
			var buf bytes.Buffer
			So(WriteHTML(&buf, fig), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"piecewise"`)

			banded := fig.Panels[1].Scale.(*figure.Banded)
			ps := pieces(banded, &fig.Colorbars[0])
			So(len(ps), ShouldEqual, 2)
			So(ps[0].Label, ShouldEqual, "STICK")
			So(ps[0].Color, ShouldEqual, figure.PolicyColors[0])
			So(ps[0].Max, ShouldEqual, float32(0.5))
			So(ps[1].Label, ShouldEqual, "HIT")
			So(ps[1].Color, ShouldEqual, figure.PolicyColors[1])
			So(ps[1].Min, ShouldEqual, float32(0.5))
			So(ps[1].Max, ShouldEqual, float32(1))
		})

		Convey("A panel without a colorbar still gets coloured pieces", func() {
			banded := fig.Panels[0].Scale.(*figure.Banded)
			ps := pieces(banded, nil)
			So(ps[0].Label, ShouldEqual, "")
			So(ps[1].Color, ShouldEqual, figure.PolicyColors[1])
		})
	})

	Convey("Given a rendered value figure", t, func() {
		fig, err := plot.Values(models.ValueFunction{{14, 3, true}: 0.42})
		So(err, ShouldBeNil)

		Convey("Cell values are kept for tooltips", func() {
			var buf bytes.Buffer
			So(WriteHTML(&buf, fig), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, figure.ValuesTitle)
			So(buf.String(), ShouldContainSubstring, "0.42")
		})
	})
}

func TestCells(t *testing.T) {
	Convey("Given the value panel of a single entry", t, func() {
		fig, err := plot.Values(models.ValueFunction{{21, 1, false}: 2})
		So(err, ShouldBeNil)
		data := cells(&fig.Panels[1])

		Convey("Every grid cell is listed once", func() {
			So(len(data), ShouldEqual, 100)
		})

		Convey("Row 0 is drawn at the top of the y axis", func() {
			So(data[0].Value, ShouldResemble, [3]interface{}{0, 9, 1.0})
			So(data[0].Name, ShouldEqual, "2.00")
			So(data[1].Name, ShouldEqual, "unset")
		})
	})

	Convey("Given a value panel holding NaN", t, func() {
		fig, err := plot.Values(models.ValueFunction{
			{21, 1, true}: math.NaN(),
			{20, 1, true}: 0.5,
		})
		So(err, ShouldBeNil)

		Convey("The NaN cell is an empty echarts value", func() {
			data := cells(&fig.Panels[0])
			So(data[0].Name, ShouldEqual, "missing")
			So(data[0].Value, ShouldResemble, [3]interface{}{0, 9, "-"})
			So(data[10].Name, ShouldEqual, "0.50")
		})

		Convey("The page still renders", func() {
			var buf bytes.Buffer
			So(WriteHTML(&buf, fig), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "missing")
		})
	})

	Convey("Y ticks are reversed for the upward category axis", t, func() {
		So(bottomUp([]string{"21", "20", "12"}), ShouldResemble, []string{"12", "20", "21"})
	})

	Convey("Values are normalized into the scale domain", t, func() {
		So(normalize(-1, -1, 1), ShouldEqual, 0.0)
		So(normalize(0, -1, 1), ShouldEqual, 0.5)
		So(normalize(9, -1, 1), ShouldEqual, 1.0)
	})
}

func TestHTMLFile(t *testing.T) {
	Convey("Given an export directory that does not exist yet", t, func() {
		dir := filepath.Join(t.TempDir(), "charts")
		out := HTMLFile{Dir: dir}

		Convey("Showing both figures writes one file per kind", func() {
			ctx := context.Background()
			So(plot.ShowValues(ctx, out, models.ValueFunction{}), ShouldBeNil)
			So(plot.ShowPolicy(ctx, out, models.ThresholdPolicy(17)), ShouldBeNil)

			for _, kind := range []string{figure.ValuesKind, figure.PolicyKind} {
				raw, err := os.ReadFile(filepath.Join(dir, kind+".html"))
				So(err, ShouldBeNil)
				So(len(raw), ShouldBeGreaterThan, 0)
			}
		})

		Convey("An unwritable directory surfaces as rendering unavailable", func() {
			blocker := filepath.Join(t.TempDir(), "file")
			So(os.WriteFile(blocker, []byte("x"), 0o644), ShouldBeNil)
			err := plot.ShowValues(context.Background(), HTMLFile{Dir: blocker}, models.ValueFunction{})
			So(errors.Is(err, plot.ErrRenderingUnavailable), ShouldBeTrue)
		})
	})
}
