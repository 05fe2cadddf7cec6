package config

import (
	"maps"
	"slices"
)

func preset(kind string, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Scene.Kind = kind
	edit(c)
	return c
}

var floor = SurfaceConfig{Name: "floor", Kind: "plane", Y: 0, Half: 20}

var Presets = map[string]map[string]*Config{
	"pair": {
		"touching": preset("pair", func(c *Config) {
			c.Steps = 500
			c.Membrane.VolumeConservation = false
		}),
		"adhesive": preset("pair", func(c *Config) {
			c.Steps = 1000
			c.Adhesion.Default = 0.8
		}),
	},
	"cluster": {
		"small": preset("cluster", func(c *Config) {
			c.Scene.Count = 27
			c.Scene.Jitter = 0.1
			c.Adhesion.Default = 0.5
		}),
		"dense": preset("cluster", func(c *Config) {
			c.Scene.Count = 125
			c.Scene.Spacing = 1.6
			c.Scene.Jitter = 0.05
			c.Adhesion.Default = 0.7
			c.Steps = 2000
		}),
	},
	"sediment": {
		"floor": preset("sediment", func(c *Config) {
			c.Scene.Count = 20
			c.Scene.Height = 4
			c.Scene.Jitter = 0.3
			c.Gravity = [3]float64{0, -1, 0}
			c.Surfaces = []SurfaceConfig{floor}
			c.Steps = 3000
		}),
		"box": preset("sediment", func(c *Config) {
			c.Scene.Count = 40
			c.Scene.Height = 4
			c.Scene.Jitter = 0.3
			c.Gravity = [3]float64{0, -1, 0}
			c.Surfaces = []SurfaceConfig{{Name: "box", Kind: "box", Half: 6, Height: 10, Adhesion: 0.3}}
			c.Adhesion.Surfaces = map[string]float64{"box": 0.3}
			c.Steps = 3000
		}),
	},
	"sheet": {
		"monolayer": preset("sheet", func(c *Config) {
			c.Scene.Count = 64
			c.Scene.Kinds = []string{"epithelial", "mesenchymal"}
			c.Adhesion.Pairs = []PairAdhesion{
				{A: "epithelial", B: "epithelial", Value: 0.9},
				{A: "epithelial", B: "mesenchymal", Value: 0.2},
			}
			c.Adhesion.Surfaces = map[string]float64{"floor": 0.6}
			c.Surfaces = []SurfaceConfig{floor}
			c.Gravity = [3]float64{0, -0.5, 0}
		}),
	},
}

func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// ListPresets returns the preset names of a scene in sorted order.
func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(scenePresets))
}

// ListScenes returns every scene that has presets.
func ListScenes() []string {
	return slices.Sorted(maps.Keys(Presets))
}
