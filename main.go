/*
Blackjackviz draws blackjack state-value functions and policies as pairs of
heatmaps, one for hands holding a usable ace and one for hands without. Mappings
are read from yaml files keyed by (player sum, dealer card, usable ace), and the
figures are printed to the terminal, exported to html, or served as live pages
that update whenever the files change.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"blackjackviz/config"
	"blackjackviz/console"
	"blackjackviz/export"
	"blackjackviz/models"
	"blackjackviz/plot"
	"blackjackviz/server"

	"github.com/golang/glog"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrNothingToPlot is returned when neither a values nor a policy file is given.
var ErrNothingToPlot = errors.New("nothing to plot: pass --values and/or --policy")

var (
	configPath string
	valuesPath string
	policyPath string
)

// mappings holds whichever of the two mapping files were given.
type mappings struct {
	values models.ValueFunction
	policy models.Policy
}

func loadMappings() (m mappings, err error) {
	if valuesPath == "" && policyPath == "" {
		return m, ErrNothingToPlot
	}
	if valuesPath != "" {
		if m.values, err = models.LoadValues(valuesPath); err != nil {
			return
		}
	}
	if policyPath != "" {
		m.policy, err = models.LoadPolicy(policyPath)
	}
	return
}

// show draws each loaded mapping on the displayer.
func show(ctx context.Context, p *plot.Plotter, d plot.Displayer, m mappings) error {
	if m.values != nil {
		if err := p.ShowValues(ctx, d, m.values); err != nil {
			return err
		}
	}
	if m.policy != nil {
		if err := p.ShowPolicy(ctx, d, m.policy); err != nil {
			return err
		}
	}
	return nil
}

// setup loads the config and mappings shared by the drawing commands.
func setup() (*config.PlotConfig, *plot.Plotter, mappings, error) {
	cfg, err := config.FromYaml(configPath)
	if err != nil {
		return nil, nil, mappings{}, err
	}
	plotter, err := plot.NewPlotter(cfg.FigureOptions())
	if err != nil {
		return nil, nil, mappings{}, err
	}
	m, err := loadMappings()
	return cfg, plotter, m, err
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the figures to the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, plotter, m, err := setup()
			if err != nil {
				return err
			}
			return show(cmd.Context(), plotter, console.NewPrinter(cmd.OutOrStdout()), m)
		},
	}
}

func newExportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the figures to html files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, plotter, m, err := setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Export.Dir = outDir
			}

			out := export.HTMLFile{Dir: cfg.Export.Dir}
			if err = show(cmd.Context(), plotter, out, m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green("exported to "+cfg.Export.Dir))
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		host     string
		port     int
		watch    bool
		printToo bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the figures as live pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, plotter, m, err := setup()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("watch") {
				cfg.Watch = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var echo io.Writer
			if printToo {
				echo = cmd.OutOrStdout()
			}
			var tasks []task
			if cfg.Watch {
				tasks = append(tasks, func(ctx context.Context, d plot.Displayer) error {
					return config.WatchFiles(ctx, watchedPaths(), func(path string) {
						reload(ctx, plotter, d, path)
					})
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), aurora.Cyan("serving on http://"+cfg.Addr()))
			return serveFigures(ctx, cfg.Addr(), plotter, m, echo, tasks...)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "redraw when the mapping files change")
	cmd.Flags().BoolVar(&printToo, "print", false, "also print every figure to the terminal")
	return cmd
}

// task runs alongside the server, redrawing on d as it sees fit.
type task func(ctx context.Context, d plot.Displayer) error

// serveFigures shows the mappings on a new server, also printing them to echo
// when it is non-nil, and serves until ctx is done or the server or a task
// fails. The server lives on the group context, so a failed task shuts it down.
func serveFigures(
	ctx context.Context,
	addr string,
	plotter *plot.Plotter,
	m mappings,
	echo io.Writer,
	tasks ...task,
) error {
	group, groupCtx := errgroup.WithContext(ctx)
	srv, err := server.NewServer(groupCtx, addr)
	if err != nil {
		return err
	}
	var display plot.Displayer = srv
	if echo != nil {
		display = plot.Multi(srv, console.NewPrinter(echo))
	}
	if err = show(groupCtx, plotter, display, m); err != nil {
		return err
	}

	group.Go(srv.Serve)
	for _, t := range tasks {
		group.Go(func() error {
			return t(groupCtx, display)
		})
	}
	return group.Wait()
}

func watchedPaths() (paths []string) {
	for _, path := range []string{valuesPath, policyPath} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	return
}

// reload redraws the figure of a changed mapping file. A file caught half
// written fails to parse and is skipped; the next write triggers another reload.
func reload(ctx context.Context, plotter *plot.Plotter, d plot.Displayer, path string) {
	var err error
	switch path {
	case valuesPath:
		var values models.ValueFunction
		if values, err = models.LoadValues(path); err == nil {
			err = plotter.ShowValues(ctx, d, values)
		}
	case policyPath:
		var policy models.Policy
		if policy, err = models.LoadPolicy(path); err == nil {
			err = plotter.ShowPolicy(ctx, d, policy)
		}
	}
	if err != nil {
		glog.Warningf("reload %s: %v", path, err)
		return
	}
	glog.Infof("reloaded %s", path)
}

func newSampleCmd() *cobra.Command {
	var (
		out     string
		stickAt int
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a fixed threshold policy as a policy file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stickAt < models.MIN_PLAYER_SUM || stickAt > models.MAX_PLAYER_SUM+1 {
				return fmt.Errorf("--stick-at must be within [%d, %d]", models.MIN_PLAYER_SUM, models.MAX_PLAYER_SUM+1)
			}
			if err := models.SavePolicy(out, models.ThresholdPolicy(stickAt)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green(fmt.Sprintf("wrote stick-at-%d policy to %s", stickAt, out)))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "policy.yaml", "policy file to write")
	cmd.Flags().IntVar(&stickAt, "stick-at", 20, "lowest player sum to stick on")
	return cmd
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blackjackviz",
		Short:         "Plot blackjack value functions and policies as heatmaps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "./config.yaml", "plot config file")
	flags.StringVar(&valuesPath, "values", "", "value function mapping file")
	flags.StringVar(&policyPath, "policy", "", "policy mapping file")
	// glog registers its flags (-v, -logtostderr, ...) on the standard flag set.
	flags.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newPrintCmd(), newExportCmd(), newServeCmd(), newSampleCmd())
	return root
}

func main() {
	defer glog.Flush()

	root := newRootCmd()
	// glog expects the standard flag set to have been parsed; cobra parses the
	// copies of its flags instead.
	_ = flag.CommandLine.Parse(nil)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err.Error()))
		glog.Flush()
		os.Exit(1)
	}
}
