package space

import (
	"math"
	"slices"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/mesh"
)

// MeshIndex bins the faces of static surfaces by bounding box so that
// contact queries only visit nearby triangles.
type MeshIndex struct {
	cellSize float64
	surfaces []*mesh.Surface
	buckets  map[key][]faceRef
}

type faceRef struct {
	surface int
	face    int
}

func NewMeshIndex(cellSize float64) *MeshIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &MeshIndex{cellSize: cellSize, buckets: make(map[key][]faceRef)}
}

func (m *MeshIndex) Surfaces() []*mesh.Surface { return m.surfaces }

// Add registers a surface and indexes its faces.
func (m *MeshIndex) Add(s *mesh.Surface) {
	m.surfaces = append(m.surfaces, s)
	m.index(len(m.surfaces) - 1)
	s.ChangedSinceLastCheck()
}

// Remove drops a surface by name and reports whether it was present.
func (m *MeshIndex) Remove(name string) bool {
	i := slices.IndexFunc(m.surfaces, func(s *mesh.Surface) bool { return s.Name == name })
	if i < 0 {
		return false
	}
	m.surfaces = slices.Delete(m.surfaces, i, i+1)
	m.rebuild()
	return true
}

// Refresh re-indexes when any surface moved since the last check.
func (m *MeshIndex) Refresh() {
	changed := false
	for _, s := range m.surfaces {
		if s.ChangedSinceLastCheck() {
			changed = true
		}
	}
	if changed {
		m.rebuild()
	}
}

func (m *MeshIndex) rebuild() {
	clear(m.buckets)
	for i := range m.surfaces {
		m.index(i)
	}
}

func (m *MeshIndex) keyOf(p dynamo.Vec) key {
	return key{
		int(math.Floor(p[0] / m.cellSize)),
		int(math.Floor(p[1] / m.cellSize)),
		int(math.Floor(p[2] / m.cellSize)),
	}
}

func (m *MeshIndex) index(si int) {
	s := m.surfaces[si]
	for f := range s.Triangles {
		lo, hi := s.Bounds(f)
		m.each(lo, hi, func(k key) {
			m.buckets[k] = append(m.buckets[k], faceRef{si, f})
		})
	}
}

func (m *MeshIndex) each(lo, hi dynamo.Vec, fn func(key)) {
	a, b := m.keyOf(lo), m.keyOf(hi)
	for x := a[0]; x <= b[0]; x++ {
		for y := a[1]; y <= b[1]; y++ {
			for z := a[2]; z <= b[2]; z++ {
				fn(key{x, y, z})
			}
		}
	}
}

// Retrieve returns every face whose bounding box shares a bucket with the
// sphere's bounding box, ordered by surface then face.
func (m *MeshIndex) Retrieve(pos dynamo.Vec, radius float64) []mesh.Candidate {
	r := dynamo.Vec{radius, radius, radius}
	seen := make(map[faceRef]bool)
	var refs []faceRef
	m.each(pos.Sub(r), pos.Add(r), func(k key) {
		for _, ref := range m.buckets[k] {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	})
	slices.SortFunc(refs, func(a, b faceRef) int {
		if a.surface != b.surface {
			return a.surface - b.surface
		}
		return a.face - b.face
	})

	out := make([]mesh.Candidate, len(refs))
	for i, ref := range refs {
		out[i] = mesh.Candidate{Surface: m.surfaces[ref.surface], Face: ref.face}
	}
	return out
}
