// Package geom holds the small geometric helpers used by the contact code.
package geom

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// MinCrossSq is the squared cross-product length below which two directions
// are treated as parallel.
const MinCrossSq = 1e-12

// Mix linearly interpolates between a and b.
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ProjectOnPlane returns the projection of p onto the plane of triangle
// (a, b, c) and whether that projection falls inside the triangle.
// Degenerate triangles never contain a projection.
func ProjectOnPlane(a, b, c, p dynamo.Vec) (dynamo.Vec, bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	n := ab.Cross(ac)
	if n.LenSqr() < MinCrossSq {
		return p, false
	}
	n = n.Normalize()
	proj := p.Sub(n.Mul(p.Sub(a).Dot(n)))
	return proj, inTriangle(a, b, c, proj)
}

// inTriangle uses barycentric coordinates; p must lie on the triangle plane.
func inTriangle(a, b, c, p dynamo.Vec) bool {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false
	}
	inv := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * inv
	v := (dot00*dot12 - dot01*dot02) * inv
	return u >= 0 && v >= 0 && u+v <= 1
}

// SignedAngle returns the angle from a to b around axis, in (-pi, pi].
// a and b should be orthogonal to axis.
func SignedAngle(a, b, axis dynamo.Vec) float64 {
	return math.Atan2(a.Cross(b).Dot(axis), a.Dot(b))
}

// Perpendicular returns a unit vector orthogonal to v.
func Perpendicular(v dynamo.Vec) dynamo.Vec {
	ref := dynamo.Vec{1, 0, 0}
	if math.Abs(v[0]) > 0.9 {
		ref = dynamo.Vec{0, 1, 0}
	}
	return dynamo.Normalized(v.Cross(ref))
}
