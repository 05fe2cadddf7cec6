package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// tunables maps a parameter name to a pointer into the config. Sweeps and
// searches address parameters by these names.
func (c *Config) tunables() map[string]*float64 {
	return map[string]*float64{
		"adhesion":          &c.Adhesion.Default,
		"tight_ratio":       &c.Adhesion.Policy.TightRatio,
		"loose_ratio":       &c.Adhesion.Policy.LooseRatio,
		"radius":            &c.Membrane.Radius,
		"stiffness":         &c.Membrane.Stiffness,
		"damp_ratio":        &c.Membrane.DampRatio,
		"angular_stiffness": &c.Membrane.AngularStiffness,
		"max_bend_angle":    &c.Membrane.MaxBendAngle,
		"viscosity":         &c.Viscosity,
		"gravity":           &c.Gravity[1],
		"mass":              &c.Scene.Mass,
		"spacing":           &c.Scene.Spacing,
		"jitter":            &c.Scene.Jitter,
		"dt":                &c.Dt,
	}
}

// Tunables lists the parameter names accepted by Set and Get.
func Tunables() []string {
	return slices.Sorted(maps.Keys(DefaultConfig().tunables()))
}

// Set assigns a named parameter. "gravity" is the vertical component.
func (c *Config) Set(name string, v float64) error {
	p, ok := c.tunables()[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %v): %w", name, Tunables(), dynamo.ErrParameterBounds)
	}
	*p = v
	return nil
}

func (c *Config) Get(name string) (float64, bool) {
	p, ok := c.tunables()[name]
	if !ok {
		return 0, false
	}
	return *p, true
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	n := *c
	n.Adhesion.Pairs = slices.Clone(c.Adhesion.Pairs)
	n.Adhesion.Surfaces = maps.Clone(c.Adhesion.Surfaces)
	n.Scene.Kinds = slices.Clone(c.Scene.Kinds)
	n.Surfaces = make([]SurfaceConfig, len(c.Surfaces))
	for i, s := range c.Surfaces {
		s.Vertices = slices.Clone(s.Vertices)
		s.Triangles = slices.Clone(s.Triangles)
		n.Surfaces[i] = s
	}
	if c.Surfaces == nil {
		n.Surfaces = nil
	}
	return &n
}
