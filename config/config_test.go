package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"blackjackviz/figure"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When the config file does not exist", t, func() {
		cfg, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))

		Convey("The defaults are used", func() {
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, Default())
			So(cfg.Addr(), ShouldEqual, ":8080")
			So(cfg.FigureOptions().PolicyPalette, ShouldResemble, figure.PolicyColors)
		})
	})

	Convey("When the config file sets some fields", t, func() {
		path := writeConfig(t, `
kind: plot
def:
  server:
    host: localhost
    port: 9090
  figure:
    height: 400
    policyPalette: ["#000000", "#ffffff"]
  watch: true
`)
		cfg, err := FromYaml(path)
		So(err, ShouldBeNil)

		Convey("They override the defaults", func() {
			So(cfg.Addr(), ShouldEqual, "localhost:9090")
			So(cfg.Figure.Height, ShouldEqual, 400)
			So(cfg.Figure.PolicyPalette, ShouldResemble, []string{"#000000", "#ffffff"})
			So(cfg.Watch, ShouldBeTrue)
		})

		Convey("The rest keep their defaults", func() {
			So(cfg.Figure.Width, ShouldEqual, 1200)
			So(cfg.Export.Dir, ShouldEqual, "charts")
			So(cfg.Figure.ValuePalette, ShouldResemble, figure.YlGnBu)
		})
	})

	Convey("When the config file is of another kind", t, func() {
		path := writeConfig(t, "kind: training\ndef:\n  watch: true\n")
		_, err := FromYaml(path)
		So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
	})

	Convey("When the config names an unusable palette", t, func() {
		path := writeConfig(t, "kind: plot\ndef:\n  figure:\n    policyPalette: [\"#000000\"]\n")
		_, err := FromYaml(path)
		So(err, ShouldNotBeNil)
	})
}

func TestWatchFiles(t *testing.T) {
	Convey("Given a watched file", t, func() {
		path := writeConfig(t, "kind: plot\n")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changed := make(chan string, 8)
		done := make(chan error, 1)
		go func() {
			done <- WatchFiles(ctx, []string{path}, func(p string) { changed <- p })
		}()
		// Give the watcher time to register.
		time.Sleep(100 * time.Millisecond)

		Convey("Writing it reports the path it was registered under", func() {
			So(os.WriteFile(path, []byte("kind: plot\ndef: {}\n"), 0o644), ShouldBeNil)
			select {
			case p := <-changed:
				So(p, ShouldEqual, path)
			case <-time.After(2 * time.Second):
				So("timed out waiting for change", ShouldBeEmpty)
			}

			cancel()
			So(<-done, ShouldBeNil)
		})
	})
}
