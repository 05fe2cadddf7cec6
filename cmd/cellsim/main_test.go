package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/storage"
	"github.com/san-kum/cellsim/internal/storage/sqlstore"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPresetsCommand(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "sediment: box, floor") || !strings.Contains(out, "sheet: monolayer") {
		t.Errorf("unexpected presets output:\n%s", out)
	}

	out, err = execute(t, "presets", "nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no presets for scene: nowhere") {
		t.Errorf("unexpected output for unknown scene: %q", out)
	}
}

func TestResolveConfig(t *testing.T) {
	cmd := newRootCmd()
	runCmd, _, err := cmd.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}
	if err := runCmd.ParseFlags([]string{"--preset", "dense", "--steps", "7"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(runCmd, []string{"cluster"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scene.Count != 125 || cfg.Steps != 7 {
		t.Errorf("preset or flag lost: count=%d steps=%d", cfg.Scene.Count, cfg.Steps)
	}
	if cfg.Dt != config.DefaultDt {
		t.Errorf("unset flag should not override, dt=%f", cfg.Dt)
	}
	if cfg.Storage.Driver != "fs" || cfg.Storage.Dir != ".cellsim" {
		t.Errorf("store flags not applied: %+v", cfg.Storage)
	}
	if config.GetPreset("cluster", "dense").Steps != 2000 {
		t.Error("resolving mutated the shared preset")
	}

	if _, err := resolveConfig(runCmd, nil); err == nil {
		t.Error("expected error for a preset without a scene")
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	cfg := config.GetPreset("sediment", "floor")
	c := *cfg
	c.Storage = config.StorageConfig{Driver: "sqlite", Dir: "elsewhere"}
	if err := config.Save(path, &c); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	runCmd, _, _ := cmd.Find([]string{"run"})
	if err := runCmd.ParseFlags([]string{"--config", path, "--dt", "0.02"}); err != nil {
		t.Fatal(err)
	}
	got, err := resolveConfig(runCmd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Scene.Kind != "sediment" || got.Dt != 0.02 {
		t.Errorf("config file not layered: kind=%s dt=%f", got.Scene.Kind, got.Dt)
	}
	if got.Storage.Driver != "sqlite" || got.Storage.Dir != "elsewhere" {
		t.Errorf("config file store overridden by flag defaults: %+v", got.Storage)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, closeFn, err := openStore(ctx, config.StorageConfig{Driver: "fs", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*storage.Store); !ok {
		t.Errorf("fs driver returned %T", st)
	}
	closeFn()

	st, closeFn, err = openStore(ctx, config.StorageConfig{Driver: "sqlite", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*sqlstore.Store); !ok {
		t.Errorf("sqlite driver returned %T", st)
	}
	if err := closeFn(); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cellsim.db")); err != nil {
		t.Errorf("sqlite file not created: %v", err)
	}

	if _, _, err := openStore(ctx, config.StorageConfig{Driver: "tape"}); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestRunListExport(t *testing.T) {
	data := t.TempDir()
	svg := filepath.Join(t.TempDir(), "final.svg")

	out, err := execute(t, "run", "pair", "--preset", "touching", "--steps", "5", "--data", data, "--svg", svg)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	m := regexp.MustCompile(`run id: (\S+)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no run id in output:\n%s", out)
	}
	runID := m[1]
	if !strings.Contains(out, "steps: 5/5") {
		t.Errorf("unexpected run output:\n%s", out)
	}
	if b, err := os.ReadFile(svg); err != nil || !strings.Contains(string(b), "<circle") {
		t.Errorf("snapshot svg missing: %v", err)
	}

	out, err = execute(t, "list", "--data", data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, runID) || !strings.Contains(out, "5/5") {
		t.Errorf("run not listed:\n%s", out)
	}

	out, err = execute(t, "export-csv", runID, "--data", data)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 || !strings.HasPrefix(lines[0], "step,time,cells") {
		t.Errorf("unexpected csv (%d lines):\n%s", len(lines), out)
	}

	out, err = execute(t, "export-json", runID, "--data", data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"scene": "pair"`) && !strings.Contains(out, `"scene":"pair"`) {
		t.Errorf("unexpected json:\n%s", out)
	}

	if _, err := execute(t, "plot", "missing", "--data", data); err == nil {
		t.Error("expected error plotting an unknown run")
	}
}

func TestAnalyzeAndPhase(t *testing.T) {
	data := t.TempDir()
	out, err := execute(t, "run", "pair", "--preset", "touching", "--steps", "16", "--data", data)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	runID := regexp.MustCompile(`run id: (\S+)`).FindStringSubmatch(out)[1]

	out, err = execute(t, "analyze", runID, "--data", data, "--field", "kinetic_energy,edges")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "kinetic_energy\n  dominant frequency") || !strings.Contains(out, "edges\n") {
		t.Errorf("unexpected analyze output:\n%s", out)
	}
	if _, err := execute(t, "analyze", runID, "--data", data, "--field", "charm"); err == nil {
		t.Error("expected error for unknown field")
	}

	out, err = execute(t, "phase", runID, "--data", data, "--x", "time", "--y", "kinetic_energy")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "kinetic_energy vs time") {
		t.Errorf("unexpected phase output:\n%s", out)
	}
}

func TestSweepCommand(t *testing.T) {
	out, err := execute(t, "sweep", "pair", "--preset", "touching", "--steps", "5",
		"--param", "viscosity", "--min", "0", "--max", "1", "--n", "3")
	if err != nil {
		t.Fatalf("sweep failed: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "VISCOSITY") || !strings.HasPrefix(lines[2], "0.5000") {
		t.Errorf("unexpected sweep output:\n%s", out)
	}

	if _, err := execute(t, "sweep", "pair", "--param", "charm"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestParseAxis(t *testing.T) {
	a, err := parseAxis("stiffness=4, 8,16")
	if err != nil {
		t.Fatal(err)
	}
	if a.Param != "stiffness" || len(a.Values) != 3 || a.Values[2] != 16 {
		t.Errorf("unexpected axis %+v", a)
	}
	for _, bad := range []string{"stiffness", "=1,2", "stiffness=", "stiffness=a"} {
		if _, err := parseAxis(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestOptimizeCommand(t *testing.T) {
	out, err := execute(t, "optimize", "pair", "--preset", "touching", "--steps", "5",
		"--axis", "viscosity=0.1,1", "--axis", "stiffness=4,8", "--metric", "energy")
	if err != nil {
		t.Fatalf("optimize failed: %v\n%s", err, out)
	}
	if strings.Count(out, "stiffness=") != 5 || !strings.Contains(out, "best: ") {
		t.Errorf("unexpected optimize output:\n%s", out)
	}

	if _, err := execute(t, "optimize", "pair"); err == nil {
		t.Error("expected error without axes")
	}
}

func TestScenarioCommand(t *testing.T) {
	data := t.TempDir()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	body := "name: two\nruns:\n  - scene: pair\n    preset: touching\n    steps: 4\n  - scene: pair\n    preset: adhesive\n    steps: 4\n    save_as: kept\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scenario", path, "--data", data)
	if err != nil {
		t.Fatalf("scenario failed: %v\n%s", err, out)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 || !strings.HasSuffix(lines[2], "kept") {
		t.Errorf("unexpected scenario output:\n%s", out)
	}

	out, err = execute(t, "list", "--data", data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("saved scenario run not listed:\n%s", out)
	}
}

func TestParamsCommand(t *testing.T) {
	out, err := execute(t, "params")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range config.Tunables() {
		if !strings.Contains(out, name) {
			t.Errorf("params output missing %s:\n%s", name, out)
		}
	}
}
