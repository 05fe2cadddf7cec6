package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/cellsim/internal/dynamo"
)

type SimError = dynamo.SimError

type Metric interface {
	Name() string
	Observe(w *World, s Stats)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *World, s Stats)
}

type Config struct {
	Dt    float64 `json:"dt"`
	Steps int     `json:"steps"`
	Seed  int64   `json:"seed"`

	// Every records one Stats sample per Every steps. Zero records all.
	Every int `json:"every"`
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if c.Every < 0 {
		return fmt.Errorf("every must be non-negative, got %d: %w", c.Every, dynamo.ErrParameterBounds)
	}
	return nil
}

type Result struct {
	Stats      []Stats            `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
	Errors     []error            `json:"-"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// Final returns the last recorded sample.
func (r *Result) Final() (Stats, bool) {
	if len(r.Stats) == 0 {
		return Stats{}, false
	}
	return r.Stats[len(r.Stats)-1], true
}

// Series extracts one Stats column across the run.
func (r *Result) Series(field string) ([]float64, error) {
	out := make([]float64, 0, len(r.Stats))
	for _, s := range r.Stats {
		v, ok := s.Field(field)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		out = append(out, v)
	}
	return out, nil
}
