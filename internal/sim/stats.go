package sim

import "math"

// Stats summarizes the world after a step.
type Stats struct {
	Step     int     `json:"step"`
	Time     float64 `json:"time"`
	Cells    int     `json:"cells"`
	Edges    int     `json:"edges"`
	Contacts int     `json:"contacts"`

	EdgesCreated    int `json:"edges_created"`
	EdgesRemoved    int `json:"edges_removed"`
	ContactsCreated int `json:"contacts_created"`
	ContactsEvicted int `json:"contacts_evicted"`

	MeanPressure    float64 `json:"mean_pressure"`
	MaxPressure     float64 `json:"max_pressure"`
	MeanCompression float64 `json:"mean_compression"`
	KineticEnergy   float64 `json:"kinetic_energy"`
	MeanDegree      float64 `json:"mean_degree"`

	// MeanVolumeRatio is the overlap-reduced cell volume over the base
	// volume, averaged over cells.
	MeanVolumeRatio float64 `json:"mean_volume_ratio"`
}

// Fields lists the numeric columns of Stats in export order.
var Fields = []string{
	"step", "time", "cells", "edges", "contacts",
	"edges_created", "edges_removed", "contacts_created", "contacts_evicted",
	"mean_pressure", "max_pressure", "mean_compression", "kinetic_energy", "mean_degree",
	"mean_volume_ratio",
}

// Values returns the Stats columns in Fields order.
func (s Stats) Values() []float64 {
	return []float64{
		float64(s.Step), s.Time, float64(s.Cells), float64(s.Edges), float64(s.Contacts),
		float64(s.EdgesCreated), float64(s.EdgesRemoved), float64(s.ContactsCreated), float64(s.ContactsEvicted),
		s.MeanPressure, s.MaxPressure, s.MeanCompression, s.KineticEnergy, s.MeanDegree,
		s.MeanVolumeRatio,
	}
}

// Field returns one column by name.
func (s Stats) Field(name string) (float64, bool) {
	for i, f := range Fields {
		if f == name {
			return s.Values()[i], true
		}
	}
	return 0, false
}

// Stats computes the aggregate state of the world. Per-step counters are
// left at zero.
func (w *World) Stats() Stats {
	st := Stats{
		Step:     w.steps,
		Time:     w.time,
		Cells:    len(w.cells),
		Edges:    w.graph.Len(),
		Contacts: w.contacts.Len(),
	}
	if len(w.cells) == 0 {
		return st
	}

	n := float64(len(w.cells))
	for _, c := range w.cells {
		m := c.Membrane()
		p := m.Pressure()
		st.MeanPressure += p
		st.MaxPressure = math.Max(st.MaxPressure, p)
		if m.Radius() > 0 {
			st.MeanCompression += 1 - m.CorrectedRadius()/m.Radius()
		}
		st.KineticEnergy += 0.5 * c.Mass() * c.Velocity().LenSqr()
		st.MeanDegree += float64(len(c.Links()))
		if bv := m.BaseVolume(); bv > 0 {
			st.MeanVolumeRatio += m.CurrentActualVolume() / bv
		}
	}
	st.MeanPressure /= n
	st.MeanCompression /= n
	st.MeanDegree /= n
	st.MeanVolumeRatio /= n
	return st
}

// StatsFromValues is the inverse of Values. Missing trailing columns stay
// zero.
func StatsFromValues(v []float64) Stats {
	col := func(i int) float64 {
		if i < len(v) {
			return v[i]
		}
		return 0
	}
	return Stats{
		Step:            int(col(0)),
		Time:            col(1),
		Cells:           int(col(2)),
		Edges:           int(col(3)),
		Contacts:        int(col(4)),
		EdgesCreated:    int(col(5)),
		EdgesRemoved:    int(col(6)),
		ContactsCreated: int(col(7)),
		ContactsEvicted: int(col(8)),
		MeanPressure:    col(9),
		MaxPressure:     col(10),
		MeanCompression: col(11),
		KineticEnergy:   col(12),
		MeanDegree:      col(13),
		MeanVolumeRatio: col(14),
	}
}
