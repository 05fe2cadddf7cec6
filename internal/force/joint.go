package force

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/geom"
)

// Joint resists bending of a connection relative to a reference direction
// fixed in its node's local frame. Past MaxAngle the reference slides with
// the connection, so the restoring torque saturates.
type Joint struct {
	K        float64 // angular stiffness
	C        float64 // angular damping
	MaxAngle float64
	KCoef    float64 // contact-surface multiplier on K

	target   dynamo.Vec
	anchored bool
}

func NewJoint(k, c, maxAngle float64) Joint {
	return Joint{K: k, C: c, MaxAngle: maxAngle, KCoef: 1}
}

// SetCurrentKCoef sets the multiplier applied to K.
func (j *Joint) SetCurrentKCoef(c float64) { j.KCoef = c }

// Anchor fixes the reference to dir as seen from a node with the given
// orientation.
func (j *Joint) Anchor(orientation dynamo.Quat, dir dynamo.Vec) {
	j.target = orientation.Inverse().Rotate(dir)
	j.anchored = true
}

// Reference returns the world-space reference direction.
func (j *Joint) Reference(orientation dynamo.Quat) dynamo.Vec {
	return orientation.Rotate(j.target)
}

// Bend returns the torque to apply to a node so that its reference turns
// toward dir, and the elastic part of that torque (without damping), which
// the caller uses for the reaction force on the other endpoint.
func (j *Joint) Bend(orientation dynamo.Quat, angVel, dir dynamo.Vec) (torque, elastic dynamo.Vec) {
	if !j.anchored {
		j.Anchor(orientation, dir)
		return dynamo.Zero, dynamo.Zero
	}

	ref := j.Reference(orientation)
	axis := ref.Cross(dir)
	if axis.LenSqr() < geom.MinCrossSq {
		return dynamo.Zero, dynamo.Zero
	}
	axis = axis.Normalize()
	angle := math.Acos(geom.Clamp(ref.Dot(dir), -1, 1))

	if j.MaxAngle > 0 && angle > j.MaxAngle {
		slide := mgl64.QuatRotate(angle-j.MaxAngle, axis)
		j.target = orientation.Inverse().Rotate(slide.Rotate(ref))
		angle = j.MaxAngle
	}

	elastic = axis.Mul(angle * j.K * j.KCoef)
	damp := axis.Mul(j.C * angVel.Dot(axis))
	return elastic.Sub(damp), elastic
}
