// Package contact manages the connections between cells and static
// surfaces. Each contact pairs an anchor spring, which keeps the cell from
// sliding freely, with a bounce spring pinned to a point on a mesh face.
package contact

import (
	"github.com/san-kum/cellsim/internal/connection"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/membrane"
	"github.com/san-kum/cellsim/internal/mesh"
)

// Cell is what the contact manager needs from a cell.
type Cell interface {
	dynamo.Node
	ID() uint64
	PrevPosition() dynamo.Vec
	Mass() float64
	Membrane() *membrane.Membrane
	AdhesionWithSurface(name string) float64
	AttachContact(c *Contact)
	DetachContact(c *Contact)
}

// ModelPoint is a fixed point on one face of a surface.
type ModelPoint struct {
	connection.SpacePoint
	Surface *mesh.Surface
	Face    int
}

// Contact is one cell-surface connection.
type Contact struct {
	Anchor *connection.Connection
	Bounce *connection.Connection

	anchor  *connection.SpacePoint
	bounce  *ModelPoint
	cell    Cell
	surface *mesh.Surface
	dirty   bool
}

func (c *Contact) Cell() Cell               { return c.cell }
func (c *Contact) Surface() *mesh.Surface   { return c.surface }
func (c *Contact) Dirty() bool              { return c.dirty }
func (c *Contact) BouncePoint() *ModelPoint { return c.bounce }
func (c *Contact) AnchorPoint() dynamo.Vec  { return c.anchor.Pos }

func (c *Contact) ComputeForces(dt float64) {
	c.Anchor.ComputeForces(dt)
	c.Bounce.ComputeForces(dt)
}
