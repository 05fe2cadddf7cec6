// Package membrane implements the spherical envelope of a cell: its radii,
// material parameters, and the geometric queries the connection managers use
// to decide which contacts exist.
//
// A membrane reads its owner's cell-cell links but never mutates them.
// CompensateVolumeLoss and ComputePressure are its only writers, and they
// only touch the membrane itself.
package membrane

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// Cell is what a membrane needs to know about its owner and its neighbors.
type Cell interface {
	ID() uint64
	Position() dynamo.Vec
	Mass() float64
	Membrane() *Membrane
	Links() []Link
	AdhesionWith(other Cell) float64
	TotalForce() float64
}

// Link is a non-owning view of a cell-cell connection.
type Link interface {
	Ends() (Cell, Cell)
	Length() float64
	// Direction is the unit vector from the first end toward the second.
	Direction() dynamo.Vec
}

// Membrane is the deformable envelope of one cell. Its corrected radius,
// shrunk by the volume lost to contacts, drives every contact test.
type Membrane struct {
	owner Cell

	baseRadius       float64
	radius           float64
	correctedRadius  float64
	stiffness        float64
	dampRatio        float64
	angularStiffness float64
	maxBendAngle     float64
	pressure         float64

	volumeConservation bool
}

func New(owner Cell, p Params) *Membrane {
	return &Membrane{
		owner:              owner,
		baseRadius:         p.Radius,
		radius:             p.Radius,
		correctedRadius:    p.Radius,
		stiffness:          p.Stiffness,
		dampRatio:          p.DampRatio,
		angularStiffness:   p.AngularStiffness,
		maxBendAngle:       p.MaxBendAngle,
		volumeConservation: p.VolumeConservation,
	}
}

// Clone copies the material parameters for a new owner. The copy starts
// uncompressed: its corrected radius equals its radius.
func (m *Membrane) Clone(owner Cell) *Membrane {
	c := *m
	c.owner = owner
	c.correctedRadius = m.radius
	c.pressure = 0
	return &c
}

func (m *Membrane) Owner() Cell               { return m.owner }
func (m *Membrane) BaseRadius() float64       { return m.baseRadius }
func (m *Membrane) Radius() float64           { return m.radius }
func (m *Membrane) CorrectedRadius() float64  { return m.correctedRadius }
func (m *Membrane) BoundingRadius() float64   { return m.correctedRadius }
func (m *Membrane) Stiffness() float64        { return m.stiffness }
func (m *Membrane) DampRatio() float64        { return m.dampRatio }
func (m *Membrane) AngularStiffness() float64 { return m.angularStiffness }
func (m *Membrane) MaxBendAngle() float64     { return m.maxBendAngle }
func (m *Membrane) Pressure() float64         { return m.pressure }
func (m *Membrane) VolumeConservation() bool  { return m.volumeConservation }

func (m *Membrane) SetStiffness(s float64)        { m.stiffness = s }
func (m *Membrane) SetDampRatio(r float64)        { m.dampRatio = r }
func (m *Membrane) SetAngularStiffness(s float64) { m.angularStiffness = s }
func (m *Membrane) SetMaxBendAngle(a float64)     { m.maxBendAngle = a }
func (m *Membrane) SetBaseRadius(r float64)       { m.baseRadius = r }
func (m *Membrane) SetVolumeConservation(on bool) { m.volumeConservation = on }

// SetRadius sets both the target and the corrected radius.
func (m *Membrane) SetRadius(r float64) {
	m.radius = r
	m.correctedRadius = r
}

// SetRadiusRatio sets the radius relative to the base radius.
func (m *Membrane) SetRadiusRatio(ratio float64) {
	m.SetRadius(ratio * m.baseRadius)
}

// SetVolume sets the radius of a sphere of volume v.
func (m *Membrane) SetVolume(v float64) {
	m.SetRadius(math.Cbrt(v / sphereFactor))
}

// Division resets the membrane after its cell divides.
func (m *Membrane) Division() { m.SetRadius(m.baseRadius) }

const sphereFactor = 4.0 / 3.0 * math.Pi

func (m *Membrane) Volume() float64 { return sphereFactor * m.radius * m.radius * m.radius }

func (m *Membrane) BaseVolume() float64 {
	return sphereFactor * m.baseRadius * m.baseRadius * m.baseRadius
}

func (m *Membrane) MomentOfInertia() float64 {
	return 4.0 * m.owner.Mass() * m.radius * m.radius
}

// other returns the neighbor across l and the unit direction from the owner
// toward it.
func (m *Membrane) other(l Link) (Cell, dynamo.Vec) {
	a, b := l.Ends()
	if a.ID() == m.owner.ID() {
		return b, l.Direction()
	}
	return a, l.Direction().Mul(-1)
}

// midpoint is the distance from the owner's center to the contact plane,
// splitting the link length in proportion to both radii.
func (m *Membrane) midpoint(l Link, other Cell) float64 {
	return l.Length() * m.radius / (m.radius + other.Membrane().radius)
}

// ConnectedCellAndMembraneDistance casts a ray from the cell center along
// the unit direction d and returns the distance to the membrane along that
// ray together with the neighbors whose contact planes bound it. Without any
// such neighbor the distance is the corrected radius. Ties are resolved with
// tol so several neighbors may be returned.
func (m *Membrane) ConnectedCellAndMembraneDistance(d dynamo.Vec, tol dynamo.Tolerance) ([]Cell, float64) {
	var closest []Cell
	closestDist := m.correctedRadius

	for _, l := range m.owner.Links() {
		other, toward := m.other(l)
		dot := toward.Mul(-1).Dot(d)
		if dot >= 0 {
			continue
		}
		dist := -m.midpoint(l, other) / dot
		switch {
		case tol.Equal(dist, closestDist):
			closest = append(closest, other)
		case dist < closestDist:
			closestDist = dist
			closest = []Cell{other}
		}
	}
	return closest, closestDist
}

// ConnectedCells returns the neighbors bounding the membrane along d.
func (m *Membrane) ConnectedCells(d dynamo.Vec, tol dynamo.Tolerance) []Cell {
	cells, _ := m.ConnectedCellAndMembraneDistance(d, tol)
	return cells
}

// MembraneDistance returns the distance to the membrane along d.
func (m *Membrane) MembraneDistance(d dynamo.Vec, tol dynamo.Tolerance) float64 {
	_, dist := m.ConnectedCellAndMembraneDistance(d, tol)
	return dist
}

// capVolume is the volume of the spherical cap of a sphere of radius r cut
// by a plane at distance mid from its center.
func capVolume(r, mid float64) float64 {
	h := r - mid
	if h <= 0 {
		return 0
	}
	return (math.Pi * h / 6.0) * (3.0*(r*r-mid*mid) + h*h)
}

// VolumeLoss sums the cap volumes cut off by every cell-cell link.
func (m *Membrane) VolumeLoss() float64 {
	loss := 0.0
	for _, l := range m.owner.Links() {
		other, _ := m.other(l)
		loss += capVolume(m.radius, m.midpoint(l, other))
	}
	return loss
}

// CurrentActualVolume is the volume of the corrected sphere minus the caps
// its contacts cut off.
func (m *Membrane) CurrentActualVolume() float64 {
	r := m.correctedRadius
	loss := 0.0
	for _, l := range m.owner.Links() {
		other, _ := m.other(l)
		loss += capVolume(r, m.midpoint(l, other))
	}
	return sphereFactor*r*r*r - loss
}

// CompensateVolumeLoss recomputes the corrected radius from the radius and
// the volume lost to every current contact, over-weighted by
// VolumeCorrection. Without contact loss the corrected radius is the radius.
func (m *Membrane) CompensateVolumeLoss(tol dynamo.Tolerance) {
	loss := m.VolumeLoss()
	if loss == 0 {
		m.correctedRadius = m.radius
		return
	}
	vol := math.Max(0, m.Volume()-VolumeCorrection*loss)
	m.correctedRadius = math.Min(m.radius, tol.Round(math.Cbrt(vol/sphereFactor)))
}

// ComputePressure derives pressure from the force accumulated this step over
// the current surface. Diagnostics only.
func (m *Membrane) ComputePressure(tol dynamo.Tolerance) {
	surface := 4.0 * math.Pi * m.radius * m.radius
	m.pressure = tol.Round(m.owner.TotalForce() / surface)
}

// ConnectionLength returns the rest length for a contact between c0 and c1:
// the sum of corrected radii shaped by the weaker of both adhesions.
func ConnectionLength(c0, c1 Cell, p LengthPolicy) float64 {
	l := c0.Membrane().correctedRadius + c1.Membrane().correctedRadius
	adh := math.Min(c0.AdhesionWith(c1), c1.AdhesionWith(c0))
	return p.Length(l, adh)
}
