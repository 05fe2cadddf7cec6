package sim

import (
	"context"
	"time"
)

type Simulator struct {
	world     *World
	metrics   []Metric
	observers []Observer
}

func New(w *World) *Simulator {
	return &Simulator{
		world:     w,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) World() *World          { return s.world }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances the world cfg.Steps times. A step error stops the run and is
// recorded in the result; the error return is reserved for configuration
// problems and cancellation.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	every := max(cfg.Every, 1)
	result := &Result{
		Stats:   make([]Stats, 0, cfg.Steps/every+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	result.Stats = append(result.Stats, s.world.Stats())

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		st, err := s.world.Step(cfg.Dt)
		if err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.world, st)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.world, st)
		}

		if result.StepsTaken%every == 0 {
			result.Stats = append(result.Stats, st)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// RunWithCallback steps until the callback returns false, the context is
// cancelled or a step fails.
func (s *Simulator) RunWithCallback(ctx context.Context, dt float64, callback func(*World, Stats) bool) error {
	if err := (Config{Dt: dt, Steps: 1}).Validate(); err != nil {
		return err
	}

	st := s.world.Stats()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.world, st) {
			return nil
		}

		var err error
		st, err = s.world.Step(dt)
		if err != nil {
			return err
		}
	}
}
