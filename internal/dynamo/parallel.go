package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RunBatches calls fn for every index in [0, n) using at most workers
// goroutines. fn must only read shared state; results are collected by the
// caller through per-index slots.
func RunBatches(n, workers int, fn func(i int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if n <= 1 || workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
