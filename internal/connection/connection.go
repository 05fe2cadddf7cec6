// Package connection implements the generic edge between two physical
// endpoints: a spring along the center axis and optional bending and twisting
// joints. ComputeForces is the only place forces and torques are written.
package connection

import (
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/force"
)

// Connection links Node0 to Node1. Direction points from Node0 to Node1.
type Connection struct {
	Node0, Node1 dynamo.Node
	Spring       force.Spring

	// Flex holds one bending joint per endpoint; Torsion the twist pair.
	// Both are optional.
	Flex    *[2]force.Joint
	Torsion *force.Torsion

	// JointsEnabled gates torque transfer.
	JointsEnabled bool

	length    float64
	direction dynamo.Vec
}

// New returns a spring-only connection with cached geometry already computed.
func New(n0, n1 dynamo.Node, s force.Spring) *Connection {
	c := &Connection{Node0: n0, Node1: n1, Spring: s, JointsEnabled: true}
	c.UpdateLengthDirection()
	return c
}

// WithJoints attaches flex and torsion joints. Both flex joints are anchored
// to the current connection direction.
func (c *Connection) WithJoints(flex [2]force.Joint, torsion force.Torsion) *Connection {
	flex[0].Anchor(c.Node0.Orientation(), c.direction)
	flex[1].Anchor(c.Node1.Orientation(), c.direction.Mul(-1))
	c.Flex = &flex
	c.Torsion = &torsion
	return c
}

func (c *Connection) Length() float64 { return c.length }

func (c *Connection) Direction() dynamo.Vec { return c.direction }

// UpdateLengthDirection refreshes the cached length and unit direction. When
// both endpoints coincide the previous direction is kept.
func (c *Connection) UpdateLengthDirection() {
	d := c.Node1.Position().Sub(c.Node0.Position())
	c.length = d.Len()
	if c.length > 0 {
		c.direction = d.Mul(1 / c.length)
	}
}

// ComputeForces evaluates the spring along the current separation and, when
// enabled, the joints, then applies the results to both endpoints.
func (c *Connection) ComputeForces(dt float64) {
	c.UpdateLengthDirection()
	if c.length == 0 {
		return
	}

	speed := c.Node1.Velocity().Sub(c.Node0.Velocity()).Dot(c.direction)
	f := c.direction.Mul(c.Spring.Force(c.length, speed))
	c.Node0.AddForce(f)
	c.Node1.AddForce(f.Mul(-1))

	if !c.JointsEnabled {
		return
	}
	if c.Flex != nil {
		c.bend(0, c.Node0, c.Node1, c.direction)
		c.bend(1, c.Node1, c.Node0, c.direction.Mul(-1))
	}
	if c.Torsion != nil {
		t0, t1 := c.Torsion.Twist(c.Node0.Orientation(), c.Node1.Orientation(),
			c.Node0.AngularVelocity(), c.Node1.AngularVelocity(), c.direction)
		c.Node0.AddTorque(t0)
		c.Node1.AddTorque(t1)
	}
}

// bend applies joint i's torque to self and the matching tangential force
// pair, pushing other toward self's reference direction.
func (c *Connection) bend(i int, self, other dynamo.Node, dir dynamo.Vec) {
	torque, elastic := c.Flex[i].Bend(self.Orientation(), self.AngularVelocity(), dir)
	self.AddTorque(torque)

	if elastic.LenSqr() == 0 {
		return
	}
	tangent := dir.Cross(elastic).Mul(1 / c.length)
	other.AddForce(tangent)
	self.AddForce(tangent.Mul(-1))
}
