package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/cellsim/internal/sim"
)

const namespace = "cellsim"

// Recorder exports step statistics as Prometheus series. It is attached to
// a simulator as an observer.
type Recorder struct {
	steps    prometheus.Counter
	cells    prometheus.Gauge
	edges    prometheus.Gauge
	contacts prometheus.Gauge
	events   *prometheus.CounterVec
	pressure *prometheus.GaugeVec
	kinetic  prometheus.Gauge
	simTime  prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "steps_total",
			Help: "Simulation steps taken.",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cells",
			Help: "Cells in the world.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections",
			Help: "Live cell-cell connections.",
		}),
		contacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "surface_contacts",
			Help: "Live cell-surface contacts.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "connection_events_total",
			Help: "Connections created and removed, by kind.",
		}, []string{"kind", "event"}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pressure",
			Help: "Membrane pressure across cells.",
		}, []string{"stat"}),
		kinetic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "kinetic_energy",
			Help: "Total kinetic energy of the cells.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sim_time_seconds",
			Help: "Simulated time.",
		}),
	}

	for _, c := range []prometheus.Collector{r.steps, r.cells, r.edges, r.contacts, r.events, r.pressure, r.kinetic, r.simTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) OnStep(_ *sim.World, s sim.Stats) {
	r.steps.Inc()
	r.cells.Set(float64(s.Cells))
	r.edges.Set(float64(s.Edges))
	r.contacts.Set(float64(s.Contacts))
	r.events.WithLabelValues("cell", "created").Add(float64(s.EdgesCreated))
	r.events.WithLabelValues("cell", "removed").Add(float64(s.EdgesRemoved))
	r.events.WithLabelValues("surface", "created").Add(float64(s.ContactsCreated))
	r.events.WithLabelValues("surface", "removed").Add(float64(s.ContactsEvicted))
	r.pressure.WithLabelValues("mean").Set(s.MeanPressure)
	r.pressure.WithLabelValues("max").Set(s.MaxPressure)
	r.kinetic.Set(s.KineticEnergy)
	r.simTime.Set(s.Time)
}
