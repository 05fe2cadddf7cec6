package connection

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/dynamo"
)

// SpacePoint is a fixed point in space. It never moves and discards any
// force or torque applied to it.
type SpacePoint struct {
	Pos dynamo.Vec
}

func NewSpacePoint(p dynamo.Vec) *SpacePoint { return &SpacePoint{Pos: p} }

func (p *SpacePoint) Position() dynamo.Vec        { return p.Pos }
func (p *SpacePoint) Velocity() dynamo.Vec        { return dynamo.Zero }
func (p *SpacePoint) Orientation() dynamo.Quat    { return mgl64.QuatIdent() }
func (p *SpacePoint) AngularVelocity() dynamo.Vec { return dynamo.Zero }
func (p *SpacePoint) AddForce(dynamo.Vec)         {}
func (p *SpacePoint) AddTorque(dynamo.Vec)        {}
