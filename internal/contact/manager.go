package contact

import (
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/cellsim/internal/connection"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/force"
	"github.com/san-kum/cellsim/internal/geom"
	"github.com/san-kum/cellsim/internal/membrane"
	"github.com/san-kum/cellsim/internal/mesh"
)

const (
	// Similarity is the minimum dot product between the previous and the
	// current contact direction for a contact to be updated in place.
	Similarity = 0.8

	AnchorStiffness = 100.0
	AnchorDampRatio = 0.9

	// anchorSlack is the squared cross length, relative to the radius, under
	// which the anchor is left where it is.
	anchorSlack = 0.02
)

// MeshPartition is the broad phase over static surfaces.
type MeshPartition interface {
	Retrieve(pos dynamo.Vec, radius float64) []mesh.Candidate
}

// Manager owns every contact, keyed by surface name then cell ID.
type Manager struct {
	tol    dynamo.Tolerance
	policy membrane.LengthPolicy
	log    *slog.Logger

	contacts map[string]map[uint64][]*Contact
}

func NewManager(tol dynamo.Tolerance, policy membrane.LengthPolicy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		tol:      tol,
		policy:   policy,
		log:      logger,
		contacts: make(map[string]map[uint64][]*Contact),
	}
}

// Len returns the number of live contacts.
func (m *Manager) Len() int {
	n := 0
	for _, byCell := range m.contacts {
		for _, cs := range byCell {
			n += len(cs)
		}
	}
	return n
}

// Contacts returns the contacts between a surface and a cell.
func (m *Manager) Contacts(surface string, cellID uint64) []*Contact {
	return slices.Clone(m.contacts[surface][cellID])
}

// Surfaces returns the names of surfaces with at least one contact.
func (m *Manager) Surfaces() []string {
	names := make([]string, 0, len(m.contacts))
	for name := range m.contacts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Refresh rebuilds the contact set for this step: every contact starts
// dirty, valid projections either update a similar contact or create a new
// one, and contacts still dirty afterwards are evicted.
func (m *Manager) Refresh(cells []Cell, index MeshPartition) (created, evicted int) {
	for _, byCell := range m.contacts {
		for _, cs := range byCell {
			for _, c := range cs {
				c.dirty = true
			}
		}
	}

	for _, cell := range cells {
		pos := cell.Position()
		r := cell.Membrane().BoundingRadius()
		for _, cand := range index.Retrieve(pos, r) {
			a, b, c := cand.Surface.Face(cand.Face)
			proj, inside := geom.ProjectOnPlane(a, b, c, pos)
			if !inside {
				continue
			}
			toward := proj.Sub(pos)
			if !m.tol.Less(toward.Len(), r) {
				continue
			}
			dir := dynamo.Normalized(toward)
			if !m.merge(cell, cand, proj, dir) {
				m.create(cell, cand, proj)
				created++
			}
		}
	}

	evicted = m.evict()
	if created > 0 || evicted > 0 {
		m.log.Debug("surface contacts refreshed", "created", created, "evicted", evicted, "total", m.Len())
	}
	return created, evicted
}

// merge updates the first existing contact whose previous direction is
// similar to dir and reports whether one was found.
func (m *Manager) merge(cell Cell, cand mesh.Candidate, proj, dir dynamo.Vec) bool {
	for _, ct := range m.contacts[cand.Surface.Name][cell.ID()] {
		prev := dynamo.Normalized(ct.bounce.Pos.Sub(cell.PrevPosition()))
		if m.tol.Round(prev.Dot(dir)) <= Similarity {
			continue
		}
		ct.dirty = false
		ct.bounce.Pos = proj
		ct.bounce.Face = cand.Face

		if ct.Anchor.Length() > 0 {
			m.slideAnchor(ct, cell, dir)
		}
		return true
	}
	return false
}

// slideAnchor keeps the anchor in the plane orthogonal to the contact
// direction, at most one radius away from the cell center.
func (m *Manager) slideAnchor(ct *Contact, cell Cell, dir dynamo.Vec) {
	radius := cell.Membrane().Radius()
	cross := dir.Cross(dir.Cross(ct.Anchor.Direction()))
	if m.tol.Round(cross.LenSqr()) <= m.tol.Round(radius*anchorSlack) {
		return
	}
	cross = cross.Normalize()
	pos := cell.Position()
	l := math.Min(ct.anchor.Pos.Sub(pos).Dot(cross), radius)
	ct.anchor.Pos = pos.Add(cross.Mul(l))
}

func (m *Manager) create(cell Cell, cand mesh.Candidate, proj dynamo.Vec) {
	mem := cell.Membrane()
	mass := cell.Mass()

	anchorPt := connection.NewSpacePoint(cell.Position())
	anchor := connection.New(anchorPt, cell,
		force.NewSpring(AnchorStiffness, force.DampingFromRatio(AnchorDampRatio, mass, AnchorStiffness), 0))
	anchor.JointsEnabled = false

	adh := cell.AdhesionWithSurface(cand.Surface.Name)
	rest := m.tol.Round(m.policy.Length(mem.CorrectedRadius(), adh))
	k := mem.Stiffness()
	bouncePt := &ModelPoint{SpacePoint: connection.SpacePoint{Pos: proj}, Surface: cand.Surface, Face: cand.Face}
	bounce := connection.New(bouncePt, cell, force.NewSpring(k, force.DampingFromRatio(mem.DampRatio(), mass, k), rest))

	ct := &Contact{
		Anchor:  anchor,
		Bounce:  bounce,
		anchor:  anchorPt,
		bounce:  bouncePt,
		cell:    cell,
		surface: cand.Surface,
	}

	byCell, ok := m.contacts[cand.Surface.Name]
	if !ok {
		byCell = make(map[uint64][]*Contact)
		m.contacts[cand.Surface.Name] = byCell
	}
	byCell[cell.ID()] = append(byCell[cell.ID()], ct)
	cell.AttachContact(ct)
}

// evict destroys dirty contacts and prunes empty entries.
func (m *Manager) evict() int {
	n := 0
	for name, byCell := range m.contacts {
		for id, cs := range byCell {
			kept := cs[:0]
			for _, c := range cs {
				if c.dirty {
					c.cell.DetachContact(c)
					n++
					continue
				}
				kept = append(kept, c)
			}
			clear(cs[len(kept):])
			if len(kept) == 0 {
				delete(byCell, id)
			} else {
				byCell[id] = kept
			}
		}
		if len(byCell) == 0 {
			delete(m.contacts, name)
		}
	}
	return n
}

// Forget drops every contact of a cell, used when the cell leaves the
// simulation.
func (m *Manager) Forget(cell Cell) int {
	n := 0
	for name, byCell := range m.contacts {
		for _, c := range byCell[cell.ID()] {
			cell.DetachContact(c)
			n++
		}
		delete(byCell, cell.ID())
		if len(byCell) == 0 {
			delete(m.contacts, name)
		}
	}
	return n
}

// ComputeForces applies every contact's springs, surfaces in name order and
// cells in ID order.
func (m *Manager) ComputeForces(dt float64) {
	for _, name := range m.Surfaces() {
		byCell := m.contacts[name]
		ids := make([]uint64, 0, len(byCell))
		for id := range byCell {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			for _, c := range byCell[id] {
				c.ComputeForces(dt)
			}
		}
	}
}
