package mesh

import (
	"fmt"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// Plane builds a horizontal square of the given half extent at height y,
// facing +y, split into two triangles.
func Plane(name string, y, half, adhesion float64) (*Surface, error) {
	if half <= 0 {
		return nil, fmt.Errorf("plane %q half extent %f: %w", name, half, dynamo.ErrParameterBounds)
	}
	v := []dynamo.Vec{
		{-half, y, -half},
		{half, y, -half},
		{half, y, half},
		{-half, y, half},
	}
	return New(name, v, [][3]int{{0, 2, 1}, {0, 3, 2}}, adhesion)
}

// Box builds an open-top box: a floor at y=0 and four walls of the given
// height, with inward-facing normals.
func Box(name string, half, height, adhesion float64) (*Surface, error) {
	if half <= 0 || height <= 0 {
		return nil, fmt.Errorf("box %q size (%f, %f): %w", name, half, height, dynamo.ErrParameterBounds)
	}
	v := []dynamo.Vec{
		{-half, 0, -half}, {half, 0, -half}, {half, 0, half}, {-half, 0, half},
		{-half, height, -half}, {half, height, -half}, {half, height, half}, {-half, height, half},
	}
	tris := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // floor
		{0, 1, 5}, {0, 5, 4}, // z = -half
		{1, 2, 6}, {1, 6, 5}, // x = +half
		{2, 3, 7}, {2, 7, 6}, // z = +half
		{3, 0, 4}, {3, 4, 7}, // x = -half
	}
	return New(name, v, tris, adhesion)
}
