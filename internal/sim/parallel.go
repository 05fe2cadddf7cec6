package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Builder creates an independent simulator for one ensemble member.
type Builder func(seed int64) (*Simulator, error)

// Ensemble runs several seeded copies of a scene concurrently. Members share
// nothing, so each one may itself use parallel detection.
type Ensemble struct {
	build     Builder
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(build Builder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// SetWorkers caps the number of members running at once. Zero means no cap.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			seed := e.seedStart + int64(i)
			s, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("build member %d: %w", i, err)
			}
			c := cfg
			c.Seed = seed
			results[i], err = s.Run(ctx, c)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
