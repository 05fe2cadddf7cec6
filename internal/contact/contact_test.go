package contact_test

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cellsim/internal/contact"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/membrane"
	"github.com/san-kum/cellsim/internal/mesh"
	"github.com/san-kum/cellsim/internal/space"
)

type cell struct {
	id                    uint64
	pos, prev, vel        dynamo.Vec
	force, torque, angVel dynamo.Vec
	mem                   *membrane.Membrane
	adhesion              float64
	contacts              []*contact.Contact
}

func newCell(id uint64, pos dynamo.Vec) *cell {
	c := &cell{id: id, pos: pos, prev: pos}
	c.mem = membrane.New(nil, membrane.DefaultParams())
	return c
}

func (c *cell) ID() uint64                         { return c.id }
func (c *cell) Position() dynamo.Vec               { return c.pos }
func (c *cell) PrevPosition() dynamo.Vec           { return c.prev }
func (c *cell) Velocity() dynamo.Vec               { return c.vel }
func (c *cell) Orientation() dynamo.Quat           { return mgl64.QuatIdent() }
func (c *cell) AngularVelocity() dynamo.Vec        { return c.angVel }
func (c *cell) AddForce(f dynamo.Vec)              { c.force = c.force.Add(f) }
func (c *cell) AddTorque(t dynamo.Vec)             { c.torque = c.torque.Add(t) }
func (c *cell) Mass() float64                      { return 1 }
func (c *cell) Membrane() *membrane.Membrane       { return c.mem }
func (c *cell) AdhesionWithSurface(string) float64 { return c.adhesion }
func (c *cell) AttachContact(ct *contact.Contact)  { c.contacts = append(c.contacts, ct) }
func (c *cell) DetachContact(ct *contact.Contact) {
	c.contacts = slices.DeleteFunc(c.contacts, func(x *contact.Contact) bool { return x == ct })
}

func (c *cell) moveTo(p dynamo.Vec) {
	c.prev = c.pos
	c.pos = p
}

var _ = Describe("Manager", func() {
	var (
		m     *contact.Manager
		index *space.MeshIndex
		floor *mesh.Surface
		c     *cell
	)

	BeforeEach(func() {
		var err error
		floor, err = mesh.Plane("floor", 0, 10, 0)
		Expect(err).NotTo(HaveOccurred())

		index = space.NewMeshIndex(2)
		index.Add(floor)
		m = contact.NewManager(dynamo.DefaultTolerance(), membrane.DefaultLengthPolicy(), nil)
		c = newCell(1, dynamo.Vec{3, 0.8, 1})
	})

	refresh := func() (int, int) {
		return m.Refresh([]contact.Cell{c}, index)
	}

	It("creates one contact for a cell resting on a surface", func() {
		created, evicted := refresh()
		Expect(created).To(Equal(1))
		Expect(evicted).To(Equal(0))
		Expect(m.Contacts("floor", 1)).To(HaveLen(1))
		Expect(c.contacts).To(HaveLen(1))

		ct := c.contacts[0]
		Expect(ct.Surface()).To(BeIdenticalTo(floor))
		Expect(ct.BouncePoint().Position().ApproxEqual(dynamo.Vec{3, 0, 1})).To(BeTrue())
		Expect(ct.Anchor.JointsEnabled).To(BeFalse())
		Expect(ct.Bounce.Spring.RestLength).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("ignores surfaces out of reach", func() {
		c.pos = dynamo.Vec{3, 1.5, 1}
		created, _ := refresh()
		Expect(created).To(BeZero())
		Expect(m.Len()).To(BeZero())
	})

	It("treats a cell within rounding of its radius as out of reach", func() {
		c.pos = dynamo.Vec{3, math.Nextafter(1, 0), 1}
		created, _ := refresh()
		Expect(created).To(BeZero())
		Expect(m.Len()).To(BeZero())

		c.pos = dynamo.Vec{3, 0.999999, 1}
		created, _ = refresh()
		Expect(created).To(Equal(1))
	})

	It("never grows the contact count while directions stay similar", func() {
		refresh()
		for i := 1; i <= 5; i++ {
			c.moveTo(c.pos.Add(dynamo.Vec{0.05, -0.01, 0}))
			created, evicted := refresh()
			Expect(created).To(BeZero())
			Expect(evicted).To(BeZero())
			Expect(m.Contacts("floor", 1)).To(HaveLen(1))
		}
		Expect(c.contacts[0].Dirty()).To(BeFalse())
	})

	It("evicts contacts that were not refreshed", func() {
		refresh()
		c.moveTo(dynamo.Vec{3, 5, 1})

		_, evicted := refresh()
		Expect(evicted).To(Equal(1))
		Expect(m.Len()).To(BeZero())
		Expect(m.Surfaces()).To(BeEmpty())
		Expect(c.contacts).To(BeEmpty())
	})

	It("shortens the bounce rest length for adhesive cells", func() {
		c.adhesion = 1
		refresh()
		Expect(c.contacts[0].Bounce.Spring.RestLength).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("pushes a compressed cell away from the surface", func() {
		refresh()
		m.ComputeForces(0.01)
		Expect(c.force[1]).To(BeNumerically(">", 0))
	})

	It("keeps the anchor at the cell's height when the cell slides", func() {
		refresh()
		m.ComputeForces(0.01)

		c.moveTo(dynamo.Vec{3.5, 0.7, 1})
		m.ComputeForces(0.01)
		refresh()

		anchor := c.contacts[0].AnchorPoint()
		Expect(anchor[1]).To(BeNumerically("~", 0.7, 1e-9))
		Expect(anchor[0]).To(BeNumerically("~", 3.0, 1e-9))
	})

	It("forgets every contact of a removed cell", func() {
		refresh()
		Expect(m.Forget(c)).To(Equal(1))
		Expect(m.Len()).To(BeZero())
		Expect(c.contacts).To(BeEmpty())
	})

	Context("in a box corner", func() {
		BeforeEach(func() {
			box, err := mesh.Box("box", 5, 3, 0)
			Expect(err).NotTo(HaveOccurred())
			index = space.NewMeshIndex(2)
			index.Add(box)
			c = newCell(1, dynamo.Vec{-4.3, 0.7, 0})
		})

		It("keeps separate contacts for dissimilar directions", func() {
			created, _ := refresh()
			Expect(created).To(Equal(2))
			Expect(m.Contacts("box", 1)).To(HaveLen(2))

			created, _ = refresh()
			Expect(created).To(BeZero())
			Expect(m.Contacts("box", 1)).To(HaveLen(2))
		})
	})
})
