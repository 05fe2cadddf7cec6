package force

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/geom"
)

// Torsion resists twisting of two nodes around the axis joining them. Each
// node carries a reference vector in its local frame; the twist is the signed
// angle between both references once projected orthogonally to the axis.
type Torsion struct {
	K        float64
	C        float64
	MaxAngle float64
	KCoef    float64

	target   [2]dynamo.Vec
	anchored bool
}

func NewTorsion(k, c, maxAngle float64) Torsion {
	return Torsion{K: k, C: c, MaxAngle: maxAngle, KCoef: 1}
}

func (t *Torsion) SetCurrentKCoef(c float64) { t.KCoef = c }

// Twist returns the torques for node 0 and node 1. axis is the unit vector
// from node 0 to node 1.
func (t *Torsion) Twist(o0, o1 dynamo.Quat, w0, w1, axis dynamo.Vec) (dynamo.Vec, dynamo.Vec) {
	if !t.anchored {
		perp := geom.Perpendicular(axis)
		t.target[0] = o0.Inverse().Rotate(perp)
		t.target[1] = o1.Inverse().Rotate(perp)
		t.anchored = true
		return dynamo.Zero, dynamo.Zero
	}

	r0 := flatten(o0.Rotate(t.target[0]), axis)
	r1 := flatten(o1.Rotate(t.target[1]), axis)
	if r0.LenSqr() < geom.MinCrossSq || r1.LenSqr() < geom.MinCrossSq {
		return dynamo.Zero, dynamo.Zero
	}
	r0, r1 = r0.Normalize(), r1.Normalize()

	angle := geom.SignedAngle(r0, r1, axis)
	if t.MaxAngle > 0 && (angle > t.MaxAngle || angle < -t.MaxAngle) {
		limit := t.MaxAngle
		if angle < 0 {
			limit = -limit
		}
		// re-seat node 1's reference at the limit
		back := mgl64.QuatRotate(limit, axis).Rotate(r0)
		t.target[1] = o1.Inverse().Rotate(back)
		angle = limit
	}

	relSpin := w1.Sub(w0).Dot(axis)
	mag := angle*t.K*t.KCoef + t.C*relSpin
	tq := axis.Mul(mag)
	return tq, tq.Mul(-1)
}

func flatten(v, axis dynamo.Vec) dynamo.Vec {
	return v.Sub(axis.Mul(v.Dot(axis)))
}
