// Package cell provides the concrete simulated cell: a rigid body with a
// spherical membrane, an adjacency list of cell links and a list of surface
// contacts.
package cell

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cellsim/internal/contact"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/graph"
	"github.com/san-kum/cellsim/internal/membrane"
)

var (
	_ dynamo.Body  = (*Cell)(nil)
	_ graph.Cell   = (*Cell)(nil)
	_ contact.Cell = (*Cell)(nil)
)

type Cell struct {
	id   uint64
	kind string
	mass float64

	pos, prev, vel dynamo.Vec
	orientation    dynamo.Quat
	angVel         dynamo.Vec

	force, torque dynamo.Vec
	received      float64

	mem      *membrane.Membrane
	links    []membrane.Link
	contacts []*contact.Contact
	adhesion *AdhesionTable
}

// New creates a cell at rest. A nil adhesion table means no adhesion.
func New(id uint64, kind string, pos dynamo.Vec, mass float64, p membrane.Params, adhesion *AdhesionTable) *Cell {
	if adhesion == nil {
		adhesion = NewAdhesionTable(0)
	}
	c := &Cell{
		id:          id,
		kind:        kind,
		mass:        mass,
		pos:         pos,
		prev:        pos,
		orientation: mgl64.QuatIdent(),
		adhesion:    adhesion,
	}
	c.mem = membrane.New(c, p)
	return c
}

func (c *Cell) ID() uint64                      { return c.id }
func (c *Cell) Kind() string                    { return c.kind }
func (c *Cell) Mass() float64                   { return c.mass }
func (c *Cell) Position() dynamo.Vec            { return c.pos }
func (c *Cell) PrevPosition() dynamo.Vec        { return c.prev }
func (c *Cell) Velocity() dynamo.Vec            { return c.vel }
func (c *Cell) Orientation() dynamo.Quat        { return c.orientation }
func (c *Cell) AngularVelocity() dynamo.Vec     { return c.angVel }
func (c *Cell) Force() dynamo.Vec               { return c.force }
func (c *Cell) Torque() dynamo.Vec              { return c.torque }
func (c *Cell) Membrane() *membrane.Membrane    { return c.mem }
func (c *Cell) MomentOfInertia() float64        { return c.mem.MomentOfInertia() }
func (c *Cell) BoundingRadius() float64         { return c.mem.BoundingRadius() }
func (c *Cell) SetPosition(p dynamo.Vec)        { c.pos = p }
func (c *Cell) SetPrevPosition(p dynamo.Vec)    { c.prev = p }
func (c *Cell) SetVelocity(v dynamo.Vec)        { c.vel = v }
func (c *Cell) SetOrientation(q dynamo.Quat)    { c.orientation = q.Normalize() }
func (c *Cell) SetAngularVelocity(w dynamo.Vec) { c.angVel = w }

// AddForce accumulates f and its magnitude, which feeds the pressure.
func (c *Cell) AddForce(f dynamo.Vec) {
	c.force = c.force.Add(f)
	c.received += f.Len()
}

func (c *Cell) AddTorque(t dynamo.Vec) { c.torque = c.torque.Add(t) }

// TotalForce is the sum of the magnitudes of every force received this step.
func (c *Cell) TotalForce() float64 { return c.received }

// ResetForces clears the accumulators at the start of a step.
func (c *Cell) ResetForces() {
	c.force = dynamo.Zero
	c.torque = dynamo.Zero
	c.received = 0
}

func (c *Cell) Links() []membrane.Link { return c.links }

func (c *Cell) Attach(l membrane.Link) { c.links = append(c.links, l) }

func (c *Cell) Detach(l membrane.Link) {
	c.links = slices.DeleteFunc(c.links, func(x membrane.Link) bool { return x == l })
}

func (c *Cell) Contacts() []*contact.Contact { return c.contacts }

func (c *Cell) AttachContact(ct *contact.Contact) { c.contacts = append(c.contacts, ct) }

func (c *Cell) DetachContact(ct *contact.Contact) {
	c.contacts = slices.DeleteFunc(c.contacts, func(x *contact.Contact) bool { return x == ct })
}

// Neighbors returns the cells linked to c.
func (c *Cell) Neighbors() []membrane.Cell {
	out := make([]membrane.Cell, 0, len(c.links))
	for _, l := range c.links {
		a, b := l.Ends()
		if a.ID() == c.id {
			out = append(out, b)
		} else {
			out = append(out, a)
		}
	}
	return out
}

// AdhesionWith looks up the adhesion between c's kind and other's kind.
func (c *Cell) AdhesionWith(other membrane.Cell) float64 {
	if o, ok := other.(*Cell); ok {
		return c.adhesion.Between(c.kind, o.kind)
	}
	return c.adhesion.Default
}

func (c *Cell) AdhesionWithSurface(name string) float64 { return c.adhesion.Surface(name) }

// Daughter returns a copy of c with a new ID at pos, sharing the adhesion
// table and membrane parameters. The copy has no links or contacts.
func (c *Cell) Daughter(id uint64, pos dynamo.Vec) *Cell {
	d := &Cell{
		id:          id,
		kind:        c.kind,
		mass:        c.mass,
		pos:         pos,
		prev:        pos,
		vel:         c.vel,
		orientation: c.orientation,
		angVel:      c.angVel,
		adhesion:    c.adhesion,
	}
	d.mem = c.mem.Clone(d)
	return d
}
