package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/cellsim/internal/sim"
)

func TestEnergyMean(t *testing.T) {
	m := NewEnergy()
	m.Observe(nil, sim.Stats{KineticEnergy: 2})
	m.Observe(nil, sim.Stats{KineticEnergy: 4})

	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("expected mean energy 3, got %f", m.Value())
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	m.Observe(nil, sim.Stats{KineticEnergy: 1})
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyPeak(t *testing.T) {
	m := NewEnergyPeak()
	for _, e := range []float64{2, 3, 1} {
		m.Observe(nil, sim.Stats{KineticEnergy: e})
	}
	if math.Abs(m.Value()-1.5) > 1e-12 {
		t.Errorf("expected peak ratio 1.5, got %f", m.Value())
	}

	m.Reset()
	m.Observe(nil, sim.Stats{})
	if m.Value() != 0 {
		t.Errorf("expected zero peak from a resting start, got %f", m.Value())
	}
}

func TestStepMetrics(t *testing.T) {
	steps := []sim.Stats{
		{MeanPressure: 1, MeanCompression: 0.1, EdgesCreated: 3},
		{MeanPressure: 3, MeanCompression: 0.3, EdgesRemoved: 1},
		{MeanPressure: 2, MeanCompression: 0.2},
	}

	tests := []struct {
		metric sim.Metric
		want   float64
	}{
		{NewPressure(), 2},
		{NewCompression(), 0.3},
		{NewTurnover(), 4.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			for _, s := range steps {
				tt.metric.Observe(nil, s)
			}
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
			tt.metric.Reset()
			if tt.metric.Value() != 0 {
				t.Errorf("expected zero after reset, got %f", tt.metric.Value())
			}
		})
	}
}

func TestDefaultsUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
