package mesh

import (
	"errors"
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
)

func TestNewValidates(t *testing.T) {
	verts := []dynamo.Vec{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {2, 0, 0}}

	tests := []struct {
		name    string
		tris    [][3]int
		wantErr error
	}{
		{"valid", [][3]int{{0, 2, 1}}, nil},
		{"index out of range", [][3]int{{0, 1, 9}}, dynamo.ErrIndexOutOfRange},
		{"collinear", [][3]int{{0, 1, 3}}, dynamo.ErrDegenerateTriangle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("s", verts, tt.tris, 0.5)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPlaneFacesUp(t *testing.T) {
	s, err := Plane("floor", -1, 10, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range s.Triangles {
		if !s.Normal(i).ApproxEqual(dynamo.Vec{0, 1, 0}) {
			t.Errorf("face %d normal %v", i, s.Normal(i))
		}
	}
	lo, hi := s.Bounds(0)
	if lo[1] != -1 || hi[1] != -1 || lo[0] != -10 || hi[0] != 10 {
		t.Errorf("unexpected bounds %v %v", lo, hi)
	}
}

func TestBoxNormalsPointInward(t *testing.T) {
	s, err := Box("box", 5, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	center := dynamo.Vec{0, 1.5, 0}
	for i := range s.Triangles {
		a, b, c := s.Face(i)
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		if s.Normal(i).Dot(center.Sub(centroid)) <= 0 {
			t.Errorf("face %d faces outward", i)
		}
	}
}

func TestAdjacencyAndChanges(t *testing.T) {
	s, err := Plane("floor", 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if adj := s.Adjacent(0); len(adj) != 1 || adj[0] != 1 {
		t.Errorf("expected face 1 adjacent to face 0, got %v", adj)
	}

	if !s.ChangedSinceLastCheck() {
		t.Error("new surface must report a change")
	}
	if s.ChangedSinceLastCheck() {
		t.Error("change flag must reset after a check")
	}
	s.Translate(dynamo.Vec{0, 2, 0})
	if !s.ChangedSinceLastCheck() || s.Vertices[0][1] != 2 {
		t.Error("translate must move vertices and flag a change")
	}
	s.Scale(dynamo.Vec{2, 1, 2})
	if s.Vertices[1][0] != 2 {
		t.Errorf("expected scaled x 2, got %v", s.Vertices[1][0])
	}
}
