package metrics

import (
	"math"

	"github.com/san-kum/cellsim/internal/sim"
)

// Energy averages the total kinetic energy of the cells over the run.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w *sim.World, s sim.Stats) {
	e.totalEnergy += s.KineticEnergy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyPeak tracks the largest kinetic energy seen relative to the first
// sample. A damped cluster should stay at or below 1.
type EnergyPeak struct {
	name          string
	initialEnergy float64
	peak          float64
	samples       int
}

func NewEnergyPeak() *EnergyPeak {
	return &EnergyPeak{name: "energy_peak"}
}

func (e *EnergyPeak) Name() string { return e.name }

func (e *EnergyPeak) Observe(w *sim.World, s sim.Stats) {
	energy := s.KineticEnergy
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		e.peak = math.Max(e.peak, energy/e.initialEnergy)
	}
}

func (e *EnergyPeak) Value() float64 {
	return e.peak
}

func (e *EnergyPeak) Reset() {
	e.initialEnergy = 0
	e.peak = 0
	e.samples = 0
}
