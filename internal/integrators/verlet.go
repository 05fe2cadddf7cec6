package integrators

import "github.com/san-kum/cellsim/internal/dynamo"

// Verlet is a position Verlet integrator. It derives the next position from
// the current and previous ones, so bodies start with zero velocity unless
// their previous position says otherwise.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) UpdatePosition(b dynamo.Body, dt float64) {
	acc := b.Force().Mul(1 / b.Mass())
	pos, prev := b.Position(), b.PrevPosition()
	next := pos.Mul(2).Sub(prev).Add(acc.Mul(dt * dt))

	b.SetVelocity(next.Sub(pos).Mul(1 / dt))
	b.SetPrevPosition(pos)
	b.SetPosition(next)
}

// UpdateOrientation uses the same semi-implicit scheme as Euler; angular
// state carries no previous orientation.
func (v *Verlet) UpdateOrientation(b dynamo.Body, dt float64) {
	w := b.AngularVelocity().Add(b.Torque().Mul(dt / b.MomentOfInertia()))
	b.SetAngularVelocity(w)
	b.SetOrientation(rotate(b.Orientation(), w, dt))
}
