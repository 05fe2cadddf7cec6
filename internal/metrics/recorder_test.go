package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/cellsim/internal/sim"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatal(err)
	}

	r.OnStep(nil, sim.Stats{Cells: 2, Edges: 1, EdgesCreated: 1, MeanPressure: 0.5, MaxPressure: 0.7})
	r.OnStep(nil, sim.Stats{Cells: 2, Edges: 0, EdgesRemoved: 1, ContactsCreated: 2, Contacts: 2})

	if got := testutil.ToFloat64(r.steps); got != 2 {
		t.Errorf("expected 2 steps, got %f", got)
	}
	if got := testutil.ToFloat64(r.edges); got != 0 {
		t.Errorf("expected 0 connections, got %f", got)
	}
	if got := testutil.ToFloat64(r.events.WithLabelValues("cell", "created")); got != 1 {
		t.Errorf("expected 1 created, got %f", got)
	}

	expected := `
# HELP cellsim_surface_contacts Live cell-surface contacts.
# TYPE cellsim_surface_contacts gauge
cellsim_surface_contacts 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cellsim_surface_contacts"); err != nil {
		t.Error(err)
	}
}

func TestRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("expected error on second registration")
	}
}
