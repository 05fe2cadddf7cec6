// Package optim searches scene parameters for the best value of a run
// metric.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/experiment"
)

// Axis is one searched parameter and the values tried for it.
type Axis struct {
	Param  string
	Values []float64
}

// Trial is one evaluated grid point. Failed runs carry Err and are never
// chosen as best.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// BuildFunc creates a ready experiment for one grid point.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	axes     []Axis
	maximize bool
}

func NewGridSearch(axes []Axis) *GridSearch {
	return &GridSearch{axes: axes}
}

// Maximize makes Search prefer larger metric values.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

// Search evaluates every grid point in order and returns the best trial and
// all trials. It stops early only on context cancellation.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &best, &trials)
	if err != nil {
		return best, trials, err
	}
	if best.Params == nil {
		return best, trials, fmt.Errorf("no successful trial")
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.axes) {
		trial := Trial{Params: maps.Clone(current)}
		trial.Value, trial.Err = evaluate(ctx, build, current, metricName)
		*trials = append(*trials, trial)
		if trial.Err == nil && g.better(trial.Value, best.Value) {
			*best = trial
		}
		return nil
	}

	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := maps.Clone(current)
		next[axis.Param] = val
		if err := g.searchRecursive(ctx, depth+1, next, build, metricName, best, trials); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, build BuildFunc, params map[string]float64, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.Errors) > 0 {
		return 0, result.Errors[0]
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metricName)
	}
	return val, nil
}

// ConfigBuilder returns a BuildFunc that applies the grid point to a copy of
// base and attaches the registry's default metrics.
func ConfigBuilder(base *config.Config, registry *experiment.Registry, logger *slog.Logger) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg, registry, logger)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
