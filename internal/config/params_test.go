package config

import (
	"errors"
	"slices"
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
)

func TestSetGet(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("adhesion", 0.7); err != nil {
		t.Fatal(err)
	}
	if cfg.Adhesion.Default != 0.7 {
		t.Errorf("adhesion not set: %f", cfg.Adhesion.Default)
	}
	if err := cfg.Set("gravity", -2); err != nil {
		t.Fatal(err)
	}
	if cfg.GravityVec() != (dynamo.Vec{0, -2, 0}) {
		t.Errorf("gravity = %v", cfg.GravityVec())
	}
	if v, ok := cfg.Get("stiffness"); !ok || v != cfg.Membrane.Stiffness {
		t.Errorf("get stiffness = %f, %v", v, ok)
	}

	if err := cfg.Set("charm", 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, ok := cfg.Get("charm"); ok {
		t.Error("unknown parameter should not be found")
	}
}

func TestTunablesSorted(t *testing.T) {
	names := Tunables()
	if !slices.IsSorted(names) || !slices.Contains(names, "viscosity") {
		t.Errorf("unexpected tunables %v", names)
	}
}

func TestClone(t *testing.T) {
	orig := GetPreset("sheet", "monolayer")
	c := orig.Clone()

	c.Adhesion.Pairs[0].Value = 0
	c.Adhesion.Surfaces["floor"] = 0
	c.Scene.Kinds[0] = "other"
	c.Surfaces[0].Half = 1
	if err := c.Set("stiffness", 99); err != nil {
		t.Fatal(err)
	}

	if orig.Adhesion.Pairs[0].Value != 0.9 || orig.Adhesion.Surfaces["floor"] != 0.6 {
		t.Error("clone shares adhesion tables")
	}
	if orig.Scene.Kinds[0] != "epithelial" || orig.Surfaces[0].Half != 20 {
		t.Error("clone shares scene or surfaces")
	}
	if orig.Membrane.Stiffness == 99 {
		t.Error("clone shares membrane params")
	}
}
