// Package force implements the stateless force laws connections are built
// from: a damped linear spring and two angular joints.
package force

import "math"

// Spring is a damped linear spring.
type Spring struct {
	K          float64 // stiffness
	C          float64 // damping
	RestLength float64
}

func NewSpring(k, c, restLength float64) Spring {
	return Spring{K: k, C: c, RestLength: restLength}
}

// Force returns the scalar tension for a spring of the given length whose
// endpoints separate at speed (positive when moving apart). Positive values
// pull the endpoints together.
func (s Spring) Force(length, speed float64) float64 {
	return s.K*(length-s.RestLength) + s.C*speed
}

// SetRestLength updates the rest length; negative values are clamped to zero.
func (s *Spring) SetRestLength(l float64) {
	s.RestLength = math.Max(0, l)
}

// DampingFromRatio converts a damping ratio into a damping coefficient for a
// mass-spring system of the given mass and stiffness.
func DampingFromRatio(ratio, mass, k float64) float64 {
	return ratio * 2.0 * math.Sqrt(mass*k)
}
