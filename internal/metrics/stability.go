package metrics

import (
	"math"

	"github.com/san-kum/cellsim/internal/sim"
)

// Stability is the fraction of observed steps in which no cell moved faster
// than the speed limit. LongestCalm reports the longest run of such steps.
type Stability struct {
	name  string
	limit float64

	calm, total  int
	streak, best int
	peakSpeed    float64
}

func NewStability(speedLimit float64) *Stability {
	return &Stability{name: "stability", limit: speedLimit}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(w *sim.World, _ sim.Stats) {
	fastest := 0.0
	for _, c := range w.Cells() {
		fastest = math.Max(fastest, c.Velocity().LenSqr())
	}
	fastest = math.Sqrt(fastest)
	s.peakSpeed = math.Max(s.peakSpeed, fastest)

	s.total++
	if fastest > s.limit {
		s.streak = 0
		return
	}
	s.calm++
	s.streak++
	s.best = max(s.best, s.streak)
}

// Value is 1 before the first observation.
func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.calm) / float64(s.total)
}

func (s *Stability) LongestCalm() int   { return s.best }
func (s *Stability) PeakSpeed() float64 { return s.peakSpeed }

func (s *Stability) Reset() {
	*s = Stability{name: s.name, limit: s.limit}
}
