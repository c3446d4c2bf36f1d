// config loads the plotting configuration. Files wrap the settings in an outer
// document naming their kind:
//
//	kind: plot
//	def:
//	  server: {host: "", port: 8080}
//	  export: {dir: charts}
//	  figure: {width: 1200, height: 600}
//	  watch: true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"blackjackviz/figure"

	"github.com/golang/glog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Kind is the only config kind this package reads.
const Kind = "plot"

// ErrUnknownKind is returned for a config file of another kind.
var ErrUnknownKind = errors.New("unknown config kind")

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// PlotConfig holds the display settings. Keys are lower case because viper
// folds the keys of the def document before it is re-read here.
type PlotConfig struct {
	Server ServerConfig `yaml:"server"`
	Export ExportConfig `yaml:"export"`
	Figure FigureConfig `yaml:"figure"`
	// Watch makes the server reload mapping files when they change.
	Watch bool `yaml:"watch"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type FigureConfig struct {
	Width         int      `yaml:"width"`
	Height        int      `yaml:"height"`
	ValuePalette  []string `yaml:"valuepalette"`
	PolicyPalette []string `yaml:"policypalette"`
}

// Default returns the settings used when no config file exists.
func Default() *PlotConfig {
	opts := figure.DefaultOptions()
	return &PlotConfig{
		Server: ServerConfig{Port: 8080},
		Export: ExportConfig{Dir: "charts"},
		Figure: FigureConfig{
			Width:         opts.Width,
			Height:        opts.Height,
			ValuePalette:  append([]string(nil), opts.ValuePalette...),
			PolicyPalette: append([]string(nil), opts.PolicyPalette...),
		},
	}
}

// Addr returns the server listen address.
func (cfg *PlotConfig) Addr() string {
	return net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
}

// FigureOptions returns the renderer options.
func (cfg *PlotConfig) FigureOptions() figure.Options {
	return figure.Options{
		ValuePalette:  cfg.Figure.ValuePalette,
		PolicyPalette: cfg.Figure.PolicyPalette,
		Width:         cfg.Figure.Width,
		Height:        cfg.Figure.Height,
	}
}

// FromYaml reads the config at path over the defaults. A missing file yields the
// defaults; settings absent from the file keep their default values.
func FromYaml(path string) (*PlotConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		glog.Warningf("no config at %s, using defaults", path)
		return Default(), nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownKind, outerConfig.Kind, path)
	}

	var defYaml []byte
	if defYaml, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, fmt.Errorf("decode config def: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(defYaml, cfg); err != nil {
		return nil, fmt.Errorf("decode config def: %w", err)
	}
	if _, err = figure.NewRenderer(cfg.FigureOptions()); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
