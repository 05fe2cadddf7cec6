// Package mesh holds the static triangulated surfaces cells can rest on.
package mesh

import (
	"fmt"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/geom"
)

// Surface is a static triangle mesh. Adhesion is the coefficient cells use
// against it unless a cell overrides it by name.
type Surface struct {
	Name      string
	Vertices  []dynamo.Vec
	Triangles [][3]int
	Adhesion  float64

	adjacency map[int][]int
	changed   bool
}

func New(name string, vertices []dynamo.Vec, triangles [][3]int, adhesion float64) (*Surface, error) {
	s := &Surface{
		Name:      name,
		Vertices:  vertices,
		Triangles: triangles,
		Adhesion:  adhesion,
		changed:   true,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every triangle references existing vertices and is
// not degenerate.
func (s *Surface) Validate() error {
	for i, tri := range s.Triangles {
		for _, v := range tri {
			if v < 0 || v >= len(s.Vertices) {
				return fmt.Errorf("surface %q face %d vertex %d: %w", s.Name, i, v, dynamo.ErrIndexOutOfRange)
			}
		}
		a, b, c := s.Face(i)
		if b.Sub(a).Cross(c.Sub(a)).LenSqr() < geom.MinCrossSq {
			return fmt.Errorf("surface %q face %d: %w", s.Name, i, dynamo.ErrDegenerateTriangle)
		}
	}
	return nil
}

// Face returns the three corners of triangle i.
func (s *Surface) Face(i int) (a, b, c dynamo.Vec) {
	t := s.Triangles[i]
	return s.Vertices[t[0]], s.Vertices[t[1]], s.Vertices[t[2]]
}

func (s *Surface) Normal(i int) dynamo.Vec {
	a, b, c := s.Face(i)
	return dynamo.Normalized(b.Sub(a).Cross(c.Sub(a)))
}

// Bounds returns the axis-aligned bounding box of triangle i.
func (s *Surface) Bounds(i int) (lo, hi dynamo.Vec) {
	a, b, c := s.Face(i)
	for k := 0; k < 3; k++ {
		lo[k] = min(a[k], b[k], c[k])
		hi[k] = max(a[k], b[k], c[k])
	}
	return lo, hi
}

func (s *Surface) Translate(t dynamo.Vec) {
	for i := range s.Vertices {
		s.Vertices[i] = s.Vertices[i].Add(t)
	}
	s.changed = true
}

// Scale multiplies every vertex component-wise by f.
func (s *Surface) Scale(f dynamo.Vec) {
	for i, v := range s.Vertices {
		s.Vertices[i] = dynamo.Vec{v[0] * f[0], v[1] * f[1], v[2] * f[2]}
	}
	s.changed = true
}

// ChangedSinceLastCheck reports whether the geometry moved since the last
// call, so spatial indexes know to rebuild.
func (s *Surface) ChangedSinceLastCheck() bool {
	c := s.changed
	s.changed = false
	return c
}

// Adjacent returns the faces sharing at least one vertex with face i.
func (s *Surface) Adjacent(i int) []int {
	if s.adjacency == nil {
		s.computeAdjacency()
	}
	return s.adjacency[i]
}

func (s *Surface) computeAdjacency() {
	byVertex := make(map[int][]int)
	for i, tri := range s.Triangles {
		for _, v := range tri {
			byVertex[v] = append(byVertex[v], i)
		}
	}
	s.adjacency = make(map[int][]int, len(s.Triangles))
	for i, tri := range s.Triangles {
		seen := map[int]bool{i: true}
		for _, v := range tri {
			for _, f := range byVertex[v] {
				if !seen[f] {
					seen[f] = true
					s.adjacency[i] = append(s.adjacency[i], f)
				}
			}
		}
	}
}

// Candidate is one face of one surface returned by a broad-phase query.
type Candidate struct {
	Surface *Surface
	Face    int
}
