// Package space provides the broad-phase indexes: a uniform hash grid over
// cells and a triangle index over static surfaces.
package space

import (
	"cmp"
	"math"
	"slices"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// Locatable is anything with a center.
type Locatable interface {
	Position() dynamo.Vec
}

type key [3]int

func compareKeys(a, b key) int {
	for i := 0; i < 3; i++ {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// forward is the half shell of neighbor offsets: every unordered pair of
// adjacent buckets is visited from exactly one side.
var forward = func() []key {
	out := []key{{0, 0, 0}}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := key{dx, dy, dz}
				if compareKeys(k, key{}) > 0 {
					out = append(out, k)
				}
			}
		}
	}
	return out
}()

// Grid is an unbounded uniform hash grid. The cell size must be at least the
// largest interaction distance (twice the largest bounding radius) for
// Batches to cover every interacting pair.
type Grid[T Locatable] struct {
	cellSize float64
	buckets  map[key][]T
}

func NewGrid[T Locatable](cellSize float64) *Grid[T] {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid[T]{cellSize: cellSize, buckets: make(map[key][]T)}
}

func (g *Grid[T]) CellSize() float64 { return g.cellSize }

func (g *Grid[T]) keyOf(p dynamo.Vec) key {
	return key{
		int(math.Floor(p[0] / g.cellSize)),
		int(math.Floor(p[1] / g.cellSize)),
		int(math.Floor(p[2] / g.cellSize)),
	}
}

// Clear empties every bucket but keeps their storage.
func (g *Grid[T]) Clear() {
	for k, b := range g.buckets {
		clear(b)
		g.buckets[k] = b[:0]
	}
}

func (g *Grid[T]) Insert(item T) {
	k := g.keyOf(item.Position())
	g.buckets[k] = append(g.buckets[k], item)
}

// Len returns the number of inserted items.
func (g *Grid[T]) Len() int {
	n := 0
	for _, b := range g.buckets {
		n += len(b)
	}
	return n
}

// Batches returns neighborhoods grouped by bucket parity. Each neighborhood
// is one occupied bucket plus its forward neighbors. Neighborhoods sharing a
// parity never share a home bucket, and the whole result is ordered by
// bucket key.
func (g *Grid[T]) Batches() [][][]T {
	keys := make([]key, 0, len(g.buckets))
	for k, b := range g.buckets {
		if len(b) > 0 {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, compareKeys)

	var groups [8][][]T
	for _, k := range keys {
		var hood []T
		for _, off := range forward {
			hood = append(hood, g.buckets[key{k[0] + off[0], k[1] + off[1], k[2] + off[2]}]...)
		}
		color := k[0]&1 | (k[1]&1)<<1 | (k[2]&1)<<2
		groups[color] = append(groups[color], hood)
	}

	out := make([][][]T, 0, len(groups))
	for _, grp := range groups {
		if len(grp) > 0 {
			out = append(out, grp)
		}
	}
	return out
}
