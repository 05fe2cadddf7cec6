package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/membrane"
)

const (
	DefaultDt        = 0.01
	DefaultSteps     = 1000
	DefaultCount     = 8
	DefaultSpacing   = 1.8
	DefaultMass      = 1.0
	DefaultCellSize  = 4.0
	DefaultViscosity = 0.5
)

type Config struct {
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Steps      int     `yaml:"steps"`
	Every      int     `yaml:"every"`
	Seed       int64   `yaml:"seed"`
	Workers    int     `yaml:"workers"`

	// Precision is the number of decimal digits kept by the rounding
	// tolerance.
	Precision int `yaml:"precision"`

	Gravity   [3]float64 `yaml:"gravity"`
	Viscosity float64    `yaml:"viscosity"`

	Membrane membrane.Params `yaml:"membrane"`
	Adhesion AdhesionConfig  `yaml:"adhesion"`
	Scene    SceneConfig     `yaml:"scene"`
	Surfaces []SurfaceConfig `yaml:"surfaces"`
	Grid     GridConfig      `yaml:"grid"`
	Log      LogConfig       `yaml:"log"`
	Storage  StorageConfig   `yaml:"storage"`
}

type AdhesionConfig struct {
	Policy   membrane.LengthPolicy `yaml:"policy"`
	Default  float64               `yaml:"default"`
	Pairs    []PairAdhesion        `yaml:"pairs"`
	Surfaces map[string]float64    `yaml:"surfaces"`
}

type PairAdhesion struct {
	A     string  `yaml:"a"`
	B     string  `yaml:"b"`
	Value float64 `yaml:"value"`
}

type SceneConfig struct {
	Kind    string   `yaml:"kind"`
	Count   int      `yaml:"count"`
	Spacing float64  `yaml:"spacing"`
	Jitter  float64  `yaml:"jitter"`
	Height  float64  `yaml:"height"`
	Mass    float64  `yaml:"mass"`
	Kinds   []string `yaml:"kinds"`
}

// SurfaceConfig describes one static surface. Kind is plane, box or mesh;
// mesh surfaces use Vertices and Triangles verbatim.
type SurfaceConfig struct {
	Name      string       `yaml:"name"`
	Kind      string       `yaml:"kind"`
	Y         float64      `yaml:"y"`
	Half      float64      `yaml:"half"`
	Height    float64      `yaml:"height"`
	Adhesion  float64      `yaml:"adhesion"`
	Vertices  [][3]float64 `yaml:"vertices,omitempty"`
	Triangles [][3]int     `yaml:"triangles,omitempty"`
}

type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Dir    string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: "euler",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Precision:  dynamo.DefaultPrecision,
		Viscosity:  DefaultViscosity,
		Membrane:   membrane.DefaultParams(),
		Adhesion: AdhesionConfig{
			Policy:   membrane.DefaultLengthPolicy(),
			Surfaces: map[string]float64{},
		},
		Scene: SceneConfig{
			Kind:    "pair",
			Count:   DefaultCount,
			Spacing: DefaultSpacing,
			Mass:    DefaultMass,
		},
		Grid:    GridConfig{CellSize: DefaultCellSize},
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: "fs", Dir: "data"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if c.Precision < 1 || c.Precision > 15 {
		return fmt.Errorf("precision must be in [1, 15], got %d: %w", c.Precision, dynamo.ErrParameterBounds)
	}
	if c.Viscosity < 0 {
		return fmt.Errorf("viscosity must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	if c.Scene.Mass <= 0 {
		return fmt.Errorf("cell mass must be positive, got %f: %w", c.Scene.Mass, dynamo.ErrParameterBounds)
	}
	if c.Grid.CellSize < 2*c.Membrane.Radius {
		return fmt.Errorf("grid cell size %f below cell diameter: %w", c.Grid.CellSize, dynamo.ErrParameterBounds)
	}
	if err := c.Membrane.Validate(); err != nil {
		return fmt.Errorf("membrane: %w", err)
	}
	if err := c.Adhesion.Policy.Validate(); err != nil {
		return fmt.Errorf("adhesion: %w", err)
	}
	return nil
}

func (c *Config) Tolerance() dynamo.Tolerance { return dynamo.NewTolerance(c.Precision) }

func (c *Config) GravityVec() dynamo.Vec { return dynamo.Vec(c.Gravity) }
