package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec = mgl64.Vec3

type Quat = mgl64.Quat

// Node is an endpoint a connection can apply forces and torques to.
// Static points implement AddForce and AddTorque as no-ops.
type Node interface {
	Position() Vec
	Velocity() Vec
	Orientation() Quat
	AngularVelocity() Vec
	AddForce(f Vec)
	AddTorque(t Vec)
}

// Body is a node that an Integrator can move.
type Body interface {
	Node
	Mass() float64
	MomentOfInertia() float64
	Force() Vec
	Torque() Vec
	PrevPosition() Vec
	SetPosition(p Vec)
	SetPrevPosition(p Vec)
	SetVelocity(v Vec)
	SetOrientation(q Quat)
	SetAngularVelocity(w Vec)
}

// Integrator advances a body from its accumulated force and torque.
type Integrator interface {
	UpdatePosition(b Body, dt float64)
	UpdateOrientation(b Body, dt float64)
}

// Zero is the null vector.
var Zero = Vec{}

// IsValid reports whether every component is finite.
func IsValid(v Vec) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalized returns v scaled to unit length, or the zero vector when v has
// no length.
func Normalized(v Vec) Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return v.Mul(1 / l)
}
