// Package automation runs scripted sequences of scenes and parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/experiment"
	"github.com/san-kum/cellsim/internal/optim"
	"github.com/san-kum/cellsim/internal/sim"
	"github.com/san-kum/cellsim/internal/storage"
)

// Scenario is a named list of runs executed in order.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a scene preset (or the defaults) and overrides
// the listed tunables. Zero Steps, Dt and Seed keep the preset values.
type ScenarioRun struct {
	Scene      string             `yaml:"scene"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params"`
	Steps      int                `yaml:"steps"`
	Dt         float64            `yaml:"dt"`
	Seed       int64              `yaml:"seed"`
	SaveAs     string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %q has no runs: %w", scenario.Name, dynamo.ErrParameterBounds)
	}
	return &scenario, nil
}

// Config resolves the run into a validated configuration.
func (r ScenarioRun) Config() (*config.Config, error) {
	var cfg *config.Config
	if r.Preset != "" {
		p := config.GetPreset(r.Scene, r.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s/%s: %w", r.Scene, r.Preset, dynamo.ErrParameterBounds)
		}
		cfg = p.Clone()
	} else {
		cfg = config.DefaultConfig()
		if r.Scene != "" {
			cfg.Scene.Kind = r.Scene
		}
	}
	if r.Integrator != "" {
		cfg.Integrator = r.Integrator
	}
	if r.Steps > 0 {
		cfg.Steps = r.Steps
	}
	if r.Dt > 0 {
		cfg.Dt = r.Dt
	}
	if r.Seed != 0 {
		cfg.Seed = r.Seed
	}
	for k, v := range r.Params {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes every run in order. Runs with SaveAs are written to
// store under that ID when store is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store storage.Backend, logger *slog.Logger) ([]*sim.Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]*sim.Result, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		logger.Info("scenario run", "scenario", scenario.Name, "run", i+1, "of", len(scenario.Runs), "scene", run.Scene)

		cfg, err := run.Config()
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		exp := experiment.New(cfg, registry, logger)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("run %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		results = append(results, result)

		if run.SaveAs == "" || store == nil {
			continue
		}
		cells := 0
		if final, ok := result.Final(); ok {
			cells = final.Cells
		}
		if _, err := store.Save(ctx, storage.RunMetadata{
			ID:         run.SaveAs,
			Scene:      cfg.Scene.Kind,
			Preset:     run.Preset,
			Seed:       cfg.Seed,
			Dt:         cfg.Dt,
			Steps:      cfg.Steps,
			StepsTaken: result.StepsTaken,
			Cells:      cells,
			Integrator: cfg.Integrator,
			Elapsed:    result.Elapsed,
			Metrics:    result.Metrics,
		}, result.Stats); err != nil {
			return results, fmt.Errorf("run %d save: %w", i+1, err)
		}
	}

	return results, nil
}

// ParameterSweep varies one tunable over N evenly spaced values.
type ParameterSweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	N     int
}

type SweepResult struct {
	Value   float64            `json:"value"`
	Final   sim.Stats          `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
	Err     error              `json:"-"`
}

// RunSweep runs one simulation per sweep value. A diverging run is recorded
// in its SweepResult and does not stop the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.N < 1 {
		return nil, fmt.Errorf("sweep needs at least one value, got %d: %w", sweep.N, dynamo.ErrParameterBounds)
	}
	if _, ok := sweep.Base.Get(sweep.Param); !ok {
		return nil, fmt.Errorf("unknown parameter %q: %w", sweep.Param, dynamo.ErrParameterBounds)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	build := optim.ConfigBuilder(sweep.Base, registry, logger)

	values := optim.Linspace(sweep.Min, sweep.Max, sweep.N)
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		exp, err := build(map[string]float64{sweep.Param: v})
		if err != nil {
			return results, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		sr := SweepResult{Value: v, Metrics: result.Metrics}
		sr.Final, _ = result.Final()
		if len(result.Errors) > 0 {
			sr.Err = result.Errors[0]
		}
		results = append(results, sr)
		logger.Info("sweep", "step", i+1, "of", len(values), sweep.Param, v)
	}

	return results, nil
}
