package graph

import (
	"github.com/san-kum/cellsim/internal/connection"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/membrane"
)

// Cell is the capability set the graph needs from a cell. Attach and Detach
// maintain the cell's non-owning adjacency list; only the Manager calls them.
type Cell interface {
	membrane.Cell
	dynamo.Node
	Attach(l membrane.Link)
	Detach(l membrane.Link)
}

// Pair identifies an unordered cell pair. Lo is always the smaller ID.
type Pair struct {
	Lo, Hi uint64
}

func MakePair(a, b uint64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Lo: a, Hi: b}
}

// Edge is a cell-cell connection. The lower-ID cell is always the first
// endpoint so both cells observe the same edge.
type Edge struct {
	*connection.Connection
	pair   Pair
	c0, c1 Cell
}

func (e *Edge) Pair() Pair { return e.pair }

// Ends satisfies membrane.Link.
func (e *Edge) Ends() (membrane.Cell, membrane.Cell) { return e.c0, e.c1 }

func (e *Edge) Cells() (Cell, Cell) { return e.c0, e.c1 }

// Other returns the endpoint that is not c.
func (e *Edge) Other(c Cell) Cell {
	if c.ID() == e.pair.Lo {
		return e.c1
	}
	return e.c0
}

// RestLength is the current spring rest length.
func (e *Edge) RestLength() float64 { return e.Spring.RestLength }
