// Package integrators advances cell bodies from their accumulated force and
// torque.
package integrators

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/dynamo"
)

// Euler is a semi-implicit Euler integrator: velocity first, then position
// from the new velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) UpdatePosition(b dynamo.Body, dt float64) {
	acc := b.Force().Mul(1 / b.Mass())
	vel := b.Velocity().Add(acc.Mul(dt))
	b.SetVelocity(vel)
	b.SetPrevPosition(b.Position())
	b.SetPosition(b.Position().Add(vel.Mul(dt)))
}

func (e *Euler) UpdateOrientation(b dynamo.Body, dt float64) {
	w := b.AngularVelocity().Add(b.Torque().Mul(dt / b.MomentOfInertia()))
	b.SetAngularVelocity(w)
	b.SetOrientation(rotate(b.Orientation(), w, dt))
}

// rotate applies angular velocity w over dt to q.
func rotate(q dynamo.Quat, w dynamo.Vec, dt float64) dynamo.Quat {
	speed := w.Len()
	if speed == 0 {
		return q
	}
	return mgl64.QuatRotate(speed*dt, w.Mul(1/speed)).Mul(q).Normalize()
}
