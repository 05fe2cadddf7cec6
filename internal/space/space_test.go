package space

import (
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/mesh"
)

type point struct {
	id  int
	pos dynamo.Vec
}

func (p *point) Position() dynamo.Vec { return p.pos }

func pairsIn(batches [][][]*point) map[[2]int]bool {
	seen := make(map[[2]int]bool)
	for _, group := range batches {
		for _, hood := range group {
			for i := range hood {
				for j := i + 1; j < len(hood); j++ {
					a, b := hood[i].id, hood[j].id
					if a > b {
						a, b = b, a
					}
					seen[[2]int{a, b}] = true
				}
			}
		}
	}
	return seen
}

func TestGridCoversNeighborPairs(t *testing.T) {
	g := NewGrid[*point](2)
	pts := []*point{
		{1, dynamo.Vec{0.5, 0.5, 0.5}},
		{2, dynamo.Vec{2.5, 0.5, 0.5}},   // +x neighbor bucket
		{3, dynamo.Vec{-0.5, -0.5, 1.5}}, // diagonal neighbor
		{4, dynamo.Vec{9, 9, 9}},         // far away
	}
	for _, p := range pts {
		g.Insert(p)
	}
	if g.Len() != 4 {
		t.Fatalf("expected 4 items, got %d", g.Len())
	}

	pairs := pairsIn(g.Batches())
	for _, want := range [][2]int{{1, 2}, {1, 3}} {
		if !pairs[want] {
			t.Errorf("expected pair %v to be covered", want)
		}
	}
	for _, far := range [][2]int{{1, 4}, {2, 4}, {3, 4}} {
		if pairs[far] {
			t.Errorf("pair %v must not share a neighborhood", far)
		}
	}
}

func TestGridParityGroups(t *testing.T) {
	g := NewGrid[*point](1)
	id := 0
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				id++
				g.Insert(&point{id, dynamo.Vec{float64(x) + 0.5, float64(y) + 0.5, float64(z) + 0.5}})
			}
		}
	}

	batches := g.Batches()
	if len(batches) != 8 {
		t.Fatalf("expected 8 parity groups, got %d", len(batches))
	}
	total := 0
	for _, group := range batches {
		total += len(group)
	}
	if total != 64 {
		t.Errorf("expected one neighborhood per occupied bucket, got %d", total)
	}
}

func TestGridClear(t *testing.T) {
	g := NewGrid[*point](1)
	g.Insert(&point{1, dynamo.Zero})
	g.Clear()

	if g.Len() != 0 || len(g.Batches()) != 0 {
		t.Error("cleared grid must be empty")
	}
}

func TestMeshIndexRetrieve(t *testing.T) {
	floor, err := mesh.Plane("floor", 0, 10, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	ceiling, err := mesh.Plane("ceiling", 20, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	idx := NewMeshIndex(2)
	idx.Add(floor)
	idx.Add(ceiling)

	got := idx.Retrieve(dynamo.Vec{3, 0.8, 3}, 1)
	if len(got) == 0 {
		t.Fatal("expected floor faces near the floor")
	}
	for _, c := range got {
		if c.Surface != floor {
			t.Errorf("unexpected surface %q", c.Surface.Name)
		}
	}

	if got := idx.Retrieve(dynamo.Vec{3, 10, 3}, 1); len(got) != 0 {
		t.Errorf("expected nothing mid-air, got %d", len(got))
	}

	ceiling.Translate(dynamo.Vec{0, -19, 0})
	idx.Refresh()
	found := false
	for _, c := range idx.Retrieve(dynamo.Vec{0, 1, 0}, 0.5) {
		if c.Surface == ceiling {
			found = true
		}
	}
	if !found {
		t.Error("refresh must re-index moved surfaces")
	}

	if !idx.Remove("ceiling") || idx.Remove("ceiling") {
		t.Error("remove must succeed once")
	}
}
