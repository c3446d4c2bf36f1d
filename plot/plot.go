// plot is the entry point for drawing blackjack value functions and policies:
// it projects a mapping onto the ace and no-ace grids, renders the figure, and
// hands it to a Displayer.
package plot

import (
	"context"
	"errors"
	"fmt"

	"blackjackviz/figure"
	"blackjackviz/models"
	"blackjackviz/projection"

	"github.com/golang/glog"
)

// ErrRenderingUnavailable wraps any failure of the display backend. The grids and
// figure computed before the failure are unaffected.
var ErrRenderingUnavailable = errors.New("rendering unavailable")

// Displayer draws a finished figure somewhere: a terminal, a file, a browser.
type Displayer interface {
	Display(ctx context.Context, fig figure.Figure) error
}

// Plotter projects and renders mappings with a configured renderer.
type Plotter struct {
	renderer *figure.Renderer
}

// NewPlotter returns a plotter drawing with the passed figure options.
func NewPlotter(opts figure.Options) (*Plotter, error) {
	rd, err := figure.NewRenderer(opts)
	if err != nil {
		return nil, err
	}
	return &Plotter{renderer: rd}, nil
}

var defaultPlotter, _ = NewPlotter(figure.DefaultOptions())

// Values renders the state-value heatmaps with the default options.
func Values(mapping models.ValueFunction) (figure.Figure, error) {
	return defaultPlotter.Values(mapping)
}

// Policy renders the policy heatmaps with the default options.
func Policy(mapping models.Policy) (figure.Figure, error) {
	return defaultPlotter.Policy(mapping)
}

// ShowValues renders the value heatmaps and displays them.
func ShowValues(ctx context.Context, d Displayer, mapping models.ValueFunction) error {
	return defaultPlotter.ShowValues(ctx, d, mapping)
}

// ShowPolicy renders the policy heatmaps and displays them.
func ShowPolicy(ctx context.Context, d Displayer, mapping models.Policy) error {
	return defaultPlotter.ShowPolicy(ctx, d, mapping)
}

func (p *Plotter) Values(mapping models.ValueFunction) (fig figure.Figure, err error) {
	var grids *projection.Grids
	if grids, err = projection.Project(mapping); err != nil {
		return
	}
	fig = p.renderer.RenderValue(grids.Ace, grids.NoAce)
	return
}

func (p *Plotter) Policy(mapping models.Policy) (fig figure.Figure, err error) {
	var grids *projection.Grids
	if grids, err = projection.Project(mapping); err != nil {
		return
	}
	fig = p.renderer.RenderPolicy(grids.Ace, grids.NoAce)
	return
}

func (p *Plotter) ShowValues(ctx context.Context, d Displayer, mapping models.ValueFunction) error {
	fig, err := p.Values(mapping)
	if err != nil {
		return err
	}
	return Show(ctx, d, fig)
}

func (p *Plotter) ShowPolicy(ctx context.Context, d Displayer, mapping models.Policy) error {
	fig, err := p.Policy(mapping)
	if err != nil {
		return err
	}
	return Show(ctx, d, fig)
}

// Show hands a rendered figure to the displayer. Failures are not retried.
func Show(ctx context.Context, d Displayer, fig figure.Figure) error {
	if d == nil {
		return fmt.Errorf("%w: no display backend", ErrRenderingUnavailable)
	}
	if err := d.Display(ctx, fig); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderingUnavailable, fig.Kind, err)
	}
	glog.V(1).Infof("displayed %s figure", fig.Kind)
	return nil
}

// Multi displays every figure on each of the displayers in turn. All displayers
// are tried; their errors are joined.
func Multi(displayers ...Displayer) Displayer {
	return multi(displayers)
}

type multi []Displayer

func (m multi) Display(ctx context.Context, fig figure.Figure) error {
	var errs []error
	for _, d := range m {
		if err := d.Display(ctx, fig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
