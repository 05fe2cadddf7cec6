package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/experiment"
	"github.com/san-kum/cellsim/internal/storage"
)

const scenarioYAML = `
name: adhesion-ramp
description: two cells with rising adhesion
runs:
  - scene: pair
    preset: touching
    steps: 10
    params:
      adhesion: 0.2
  - scene: pair
    preset: touching
    steps: 10
    seed: 7
    params:
      adhesion: 0.9
    save_as: strong
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "adhesion-ramp" || len(sc.Runs) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Runs[1].SaveAs != "strong" || sc.Runs[1].Params["adhesion"] != 0.9 {
		t.Errorf("second run parsed wrong: %+v", sc.Runs[1])
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for empty scenario, got %v", err)
	}
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScenarioRunConfig(t *testing.T) {
	cfg, err := ScenarioRun{Scene: "pair", Preset: "adhesive", Steps: 3, Params: map[string]float64{"stiffness": 11}}.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Steps != 3 || cfg.Membrane.Stiffness != 11 {
		t.Errorf("overrides not applied: steps=%d stiffness=%f", cfg.Steps, cfg.Membrane.Stiffness)
	}
	if config.GetPreset("pair", "adhesive").Membrane.Stiffness == 11 {
		t.Error("overrides leaked into the preset")
	}

	if _, err := (ScenarioRun{Scene: "pair", Preset: "nope"}).Config(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for unknown preset, got %v", err)
	}
	if _, err := (ScenarioRun{Scene: "pair", Params: map[string]float64{"charm": 1}}).Config(); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 10 {
			t.Errorf("run %d took %d steps", i, r.StepsTaken)
		}
	}

	runs, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "strong" || runs[0].Seed != 7 {
		t.Errorf("expected only the saved run, got %+v", runs)
	}
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("pair", "touching").Clone()
	base.Steps = 10

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base: base, Param: "viscosity", Min: 0, Max: 1, N: 3,
	}, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []float64{0, 0.5, 1} {
		if results[i].Value != want {
			t.Errorf("value %d = %f, want %f", i, results[i].Value, want)
		}
		if results[i].Err != nil || results[i].Final.Cells != 2 {
			t.Errorf("result %d: %+v", i, results[i])
		}
	}
	if base.Viscosity != config.GetPreset("pair", "touching").Viscosity {
		t.Error("sweep modified its base config")
	}

	for _, bad := range []*ParameterSweep{
		{Base: base, Param: "viscosity", N: 0},
		{Base: base, Param: "charm", N: 2},
	} {
		if _, err := RunSweep(context.Background(), bad, experiment.NewRegistry(), nil); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("expected ErrParameterBounds for %+v, got %v", bad, err)
		}
	}
}
