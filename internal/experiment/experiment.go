package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/san-kum/cellsim/internal/cell"
	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/mesh"
	"github.com/san-kum/cellsim/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	log        *slog.Logger
	simulator  *sim.Simulator
	randSource *rand.Rand
}

func New(cfg *config.Config, registry *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Experiment{
		cfg:        cfg,
		registry:   registry,
		log:        logger,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup validates the configuration, builds the world and attaches
// metrics.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	w, err := e.BuildWorld()
	if err != nil {
		return err
	}
	e.simulator = sim.New(w)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// BuildWorld creates a world from the configuration without running it.
func (e *Experiment) BuildWorld() (*sim.World, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	scene, err := e.registry.GetScene(cfg.Scene.Kind)
	if err != nil {
		return nil, err
	}

	w := sim.NewWorld(integ, sim.Options{
		Tolerance: cfg.Tolerance(),
		Policy:    cfg.Adhesion.Policy,
		Workers:   cfg.Workers,
		Gravity:   cfg.GravityVec(),
		Viscosity: cfg.Viscosity,
		CellSize:  cfg.Grid.CellSize,
		Logger:    e.log,
	})

	table := cell.NewAdhesionTable(cfg.Adhesion.Default)
	for _, p := range cfg.Adhesion.Pairs {
		table.SetPair(p.A, p.B, p.Value)
	}

	for _, sc := range cfg.Surfaces {
		s, err := buildSurface(sc)
		if err != nil {
			return nil, fmt.Errorf("surface %q: %w", sc.Name, err)
		}
		table.SetSurface(s.Name, s.Adhesion)
		w.AddSurface(s)
	}
	for name, v := range cfg.Adhesion.Surfaces {
		table.SetSurface(name, v)
	}

	for _, p := range scene(cfg, e.randSource) {
		c := cell.New(w.NextID(), p.Kind, p.Pos, cfg.Scene.Mass, cfg.Membrane, table)
		if err := w.AddCell(c); err != nil {
			return nil, err
		}
	}

	e.log.Info("world built",
		"scene", cfg.Scene.Kind,
		"cells", len(w.Cells()),
		"surfaces", len(cfg.Surfaces),
		"integrator", cfg.Integrator)
	return w, nil
}

func buildSurface(sc config.SurfaceConfig) (*mesh.Surface, error) {
	switch sc.Kind {
	case "plane":
		return mesh.Plane(sc.Name, sc.Y, sc.Half, sc.Adhesion)
	case "box":
		s, err := mesh.Box(sc.Name, sc.Half, sc.Height, sc.Adhesion)
		if err != nil {
			return nil, err
		}
		s.Translate(dynamo.Vec{0, sc.Y, 0})
		return s, nil
	case "mesh":
		verts := make([]dynamo.Vec, len(sc.Vertices))
		for i, v := range sc.Vertices {
			verts[i] = dynamo.Vec(v)
		}
		return mesh.New(sc.Name, verts, sc.Triangles, sc.Adhesion)
	}
	return nil, fmt.Errorf("unknown surface kind %q: %w", sc.Kind, dynamo.ErrParameterBounds)
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := sim.Config{
		Dt:    e.cfg.Dt,
		Steps: e.cfg.Steps,
		Seed:  e.cfg.Seed,
		Every: e.cfg.Every,
	}

	e.log.Info("run started", "steps", simCfg.Steps, "dt", simCfg.Dt)
	res, err := e.simulator.Run(ctx, simCfg)
	if err != nil {
		return res, err
	}
	for _, stepErr := range res.Errors {
		e.log.Warn("run stopped early", "err", stepErr, "steps", res.StepsTaken)
	}
	e.log.Info("run finished", "steps", res.StepsTaken, "elapsed", res.Elapsed)
	return res, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Builder returns an ensemble builder that rebuilds the configured scene
// with each member's seed.
func Builder(cfg *config.Config, registry *Registry, logger *slog.Logger) sim.Builder {
	return func(seed int64) (*sim.Simulator, error) {
		c := cfg.Clone()
		c.Seed = seed
		e := New(c, registry, logger)
		if err := e.Setup(registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return e.GetSimulator(), nil
	}
}
