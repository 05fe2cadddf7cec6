package viz

import (
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
)

func TestCameraProjectCenter(t *testing.T) {
	cam := NewCamera()
	cam.Fit(dynamo.Vec{-2, -2, -2}, dynamo.Vec{4, 4, 4})

	x, y, _, ok := cam.Project(dynamo.Vec{1, 1, 1}, 160, 96)
	if !ok || x != 80 || y != 48 {
		t.Errorf("center projected to (%d, %d, %v), want (80, 48, true)", x, y, ok)
	}
}

func TestCameraProjectAxes(t *testing.T) {
	cam := &Camera{Extent: 5, Zoom: 1, Distance: 4}

	x, y, _, _ := cam.Project(dynamo.Vec{2, 0, 0}, 100, 100)
	if x <= 50 || y != 50 {
		t.Errorf("+x projected to (%d, %d)", x, y)
	}
	x, y, _, _ = cam.Project(dynamo.Vec{0, 2, 0}, 100, 100)
	if x != 50 || y >= 50 {
		t.Errorf("+y should point up, got (%d, %d)", x, y)
	}
}

func TestCameraBehind(t *testing.T) {
	cam := &Camera{Extent: 1, Zoom: 1, Distance: 4}
	if _, _, _, ok := cam.Project(dynamo.Vec{0, 0, 10}, 100, 100); ok {
		t.Error("point behind the camera should not be visible")
	}
	if r := cam.ProjectRadius(dynamo.Vec{0, 0, 10}, 1, 100, 100); r != 0 {
		t.Errorf("radius behind the camera = %d", r)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := &Camera{Extent: 5, Zoom: 1, Distance: 4}
	before := cam.ProjectRadius(dynamo.Vec{}, 1, 100, 100)
	cam.ZoomIn()
	after := cam.ProjectRadius(dynamo.Vec{}, 1, 100, 100)
	if after <= before {
		t.Errorf("zoom in should grow radius: %d -> %d", before, after)
	}

	for range 50 {
		cam.ZoomOut()
	}
	if cam.Zoom < 0.1 {
		t.Errorf("zoom below floor: %f", cam.Zoom)
	}
}
