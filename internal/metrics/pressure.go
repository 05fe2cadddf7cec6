package metrics

import (
	"math"

	"github.com/san-kum/cellsim/internal/sim"
)

type Pressure struct {
	name    string
	sum     float64
	samples int
}

func NewPressure() *Pressure {
	return &Pressure{name: "pressure"}
}

func (p *Pressure) Name() string { return p.name }

func (p *Pressure) Observe(_ *sim.World, s sim.Stats) {
	p.sum += s.MeanPressure
	p.samples++
}

func (p *Pressure) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *Pressure) Reset() {
	p.sum = 0
	p.samples = 0
}

// Compression is the largest mean compression, 1 - corrected/radius, seen
// during the run.
type Compression struct {
	name string
	peak float64
}

func NewCompression() *Compression {
	return &Compression{name: "compression"}
}

func (c *Compression) Name() string { return c.name }

func (c *Compression) Observe(_ *sim.World, s sim.Stats) {
	c.peak = math.Max(c.peak, s.MeanCompression)
}

func (c *Compression) Value() float64 { return c.peak }

func (c *Compression) Reset() { c.peak = 0 }

// Turnover counts connection creations and removals per step.
type Turnover struct {
	name    string
	events  int
	samples int
}

func NewTurnover() *Turnover {
	return &Turnover{name: "turnover"}
}

func (t *Turnover) Name() string { return t.name }

func (t *Turnover) Observe(_ *sim.World, s sim.Stats) {
	t.events += s.EdgesCreated + s.EdgesRemoved
	t.samples++
}

func (t *Turnover) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return float64(t.events) / float64(t.samples)
}

func (t *Turnover) Reset() {
	t.events = 0
	t.samples = 0
}

// Defaults returns the metrics attached to every run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewEnergy(),
		NewEnergyPeak(),
		NewStability(0.05),
		NewPressure(),
		NewCompression(),
		NewTurnover(),
	}
}
