package sim

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// CellView is the drawable part of a cell.
type CellView struct {
	ID       uint64     `json:"id"`
	Kind     string     `json:"kind"`
	Pos      dynamo.Vec `json:"pos"`
	Radius   float64    `json:"radius"`
	Pressure float64    `json:"pressure"`
}

// LinkView is a cell-cell connection by endpoint IDs and positions.
type LinkView struct {
	A          uint64     `json:"a"`
	B          uint64     `json:"b"`
	From       dynamo.Vec `json:"from"`
	To         dynamo.Vec `json:"to"`
	RestLength float64    `json:"rest_length"`
}

type SurfaceView struct {
	Name      string          `json:"name"`
	Triangles [][3]dynamo.Vec `json:"triangles"`
}

// Snapshot is a detached copy of the world geometry, safe to hand to
// renderers while the world keeps stepping.
type Snapshot struct {
	Step     int           `json:"step"`
	Time     float64       `json:"time"`
	Cells    []CellView    `json:"cells"`
	Links    []LinkView    `json:"links"`
	Surfaces []SurfaceView `json:"surfaces"`
}

func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Step:  w.steps,
		Time:  w.time,
		Cells: make([]CellView, 0, len(w.cells)),
	}
	for _, c := range w.cells {
		m := c.Membrane()
		s.Cells = append(s.Cells, CellView{
			ID:       c.ID(),
			Kind:     c.Kind(),
			Pos:      c.Position(),
			Radius:   m.CorrectedRadius(),
			Pressure: m.Pressure(),
		})
	}
	edges := w.graph.Edges()
	s.Links = make([]LinkView, 0, len(edges))
	for _, e := range edges {
		a, b := e.Cells()
		s.Links = append(s.Links, LinkView{
			A:          e.Pair().Lo,
			B:          e.Pair().Hi,
			From:       a.Position(),
			To:         b.Position(),
			RestLength: e.RestLength(),
		})
	}
	for _, surf := range w.meshes.Surfaces() {
		sv := SurfaceView{Name: surf.Name, Triangles: make([][3]dynamo.Vec, len(surf.Triangles))}
		for i := range surf.Triangles {
			a, b, c := surf.Face(i)
			sv.Triangles[i] = [3]dynamo.Vec{a, b, c}
		}
		s.Surfaces = append(s.Surfaces, sv)
	}
	return s
}

// Bounds returns the box enclosing every cell sphere. An empty snapshot
// yields a unit box around the origin.
func (s Snapshot) Bounds() (lo, hi dynamo.Vec) {
	if len(s.Cells) == 0 {
		return dynamo.Vec{-1, -1, -1}, dynamo.Vec{1, 1, 1}
	}
	lo = dynamo.Vec{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = dynamo.Vec{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, c := range s.Cells {
		for i := range 3 {
			lo[i] = math.Min(lo[i], c.Pos[i]-c.Radius)
			hi[i] = math.Max(hi[i], c.Pos[i]+c.Radius)
		}
	}
	return lo, hi
}
