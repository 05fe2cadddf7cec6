package experiment

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"

	"github.com/san-kum/cellsim/internal/config"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/integrators"
	"github.com/san-kum/cellsim/internal/metrics"
	"github.com/san-kum/cellsim/internal/sim"
)

// Placement is the initial position and kind of one cell.
type Placement struct {
	Pos  dynamo.Vec
	Kind string
}

// Scene lays out the initial cells of a world.
type Scene func(cfg *config.Config, rng *rand.Rand) []Placement

type Registry struct {
	scenes      map[string]Scene
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		scenes:      make(map[string]Scene),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.scenes["pair"] = pairScene
	r.scenes["cluster"] = clusterScene
	r.scenes["sediment"] = sedimentScene
	r.scenes["sheet"] = sheetScene

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["verlet"] = func() dynamo.Integrator { return integrators.NewVerlet() }

	return r
}

func (r *Registry) GetScene(name string) (Scene, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListScenes() []string {
	return slices.Sorted(maps.Keys(r.scenes))
}

func (r *Registry) ListIntegrators() []string {
	return slices.Sorted(maps.Keys(r.integrators))
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Defaults()
}

func kindOf(cfg *config.Config, i int) string {
	if len(cfg.Scene.Kinds) == 0 {
		return "cell"
	}
	return cfg.Scene.Kinds[i%len(cfg.Scene.Kinds)]
}

func jitter(rng *rand.Rand, amount float64) dynamo.Vec {
	if amount == 0 {
		return dynamo.Zero
	}
	return dynamo.Vec{
		(rng.Float64()*2 - 1) * amount,
		(rng.Float64()*2 - 1) * amount,
		(rng.Float64()*2 - 1) * amount,
	}
}

// pairScene places two cells Spacing apart on the x axis.
func pairScene(cfg *config.Config, _ *rand.Rand) []Placement {
	return []Placement{
		{Pos: dynamo.Vec{0, cfg.Scene.Height, 0}, Kind: kindOf(cfg, 0)},
		{Pos: dynamo.Vec{cfg.Scene.Spacing, cfg.Scene.Height, 0}, Kind: kindOf(cfg, 1)},
	}
}

// clusterScene fills the smallest cube lattice holding Count cells,
// centered on the origin.
func clusterScene(cfg *config.Config, rng *rand.Rand) []Placement {
	n := cfg.Scene.Count
	side := int(math.Ceil(math.Cbrt(float64(n))))
	offset := float64(side-1) * cfg.Scene.Spacing / 2
	out := make([]Placement, 0, n)
	for i := 0; i < n; i++ {
		x, y, z := i%side, (i/side)%side, i/(side*side)
		p := dynamo.Vec{float64(x), float64(y), float64(z)}.Mul(cfg.Scene.Spacing)
		p = p.Sub(dynamo.Vec{offset, offset, offset}).Add(jitter(rng, cfg.Scene.Jitter))
		out = append(out, Placement{Pos: p, Kind: kindOf(cfg, i)})
	}
	return out
}

// sedimentScene stacks layers of cells above the floor starting at Height.
func sedimentScene(cfg *config.Config, rng *rand.Rand) []Placement {
	n := cfg.Scene.Count
	side := max(int(math.Ceil(math.Sqrt(float64(n)/2))), 1)
	spacing := cfg.Scene.Spacing * 1.2
	offset := float64(side-1) * spacing / 2
	out := make([]Placement, 0, n)
	for i := 0; i < n; i++ {
		x, z, layer := i%side, (i/side)%side, i/(side*side)
		p := dynamo.Vec{
			float64(x)*spacing - offset,
			cfg.Scene.Height + float64(layer)*spacing,
			float64(z)*spacing - offset,
		}
		j := jitter(rng, cfg.Scene.Jitter)
		j[1] = 0
		out = append(out, Placement{Pos: p.Add(j), Kind: kindOf(cfg, i)})
	}
	return out
}

// sheetScene lays a square monolayer resting on the floor, alternating
// kinds in a checkerboard.
func sheetScene(cfg *config.Config, rng *rand.Rand) []Placement {
	n := cfg.Scene.Count
	side := max(int(math.Ceil(math.Sqrt(float64(n)))), 1)
	offset := float64(side-1) * cfg.Scene.Spacing / 2
	y := cfg.Membrane.Radius * 0.9
	out := make([]Placement, 0, n)
	for i := 0; i < n; i++ {
		x, z := i%side, i/side
		p := dynamo.Vec{float64(x)*cfg.Scene.Spacing - offset, y, float64(z)*cfg.Scene.Spacing - offset}
		j := jitter(rng, cfg.Scene.Jitter)
		j[1] = 0
		out = append(out, Placement{Pos: p.Add(j), Kind: kindOf(cfg, x+z)})
	}
	return out
}
