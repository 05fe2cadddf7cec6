// Package graph owns the cell-cell connection graph: detection of new
// contacts, per-step revalidation and parameter updates, and removal.
//
// Detection is split into a read-only phase that may run in parallel over
// spatial batches and a serial commit phase. Nothing mutates the graph while
// it is being scanned.
package graph

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/cellsim/internal/connection"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/force"
	"github.com/san-kum/cellsim/internal/membrane"
)

// Partition is the broad phase used by Detect. Batches groups cells into
// neighborhoods; neighborhoods in the same outer group may be scanned
// concurrently. Only pairs inside one neighborhood are tested.
type Partition interface {
	Clear()
	Insert(c Cell)
	Batches() [][][]Cell
}

// Manager owns every cell-cell Edge. Edges live in an arena slice indexed
// by Pair; callers only hold non-owning references.
type Manager struct {
	tol     dynamo.Tolerance
	policy  membrane.LengthPolicy
	workers int
	log     *slog.Logger

	edges []*Edge
	index map[Pair]int
}

func New(tol dynamo.Tolerance, policy membrane.LengthPolicy, workers int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		tol:     tol,
		policy:  policy,
		workers: workers,
		log:     logger,
		index:   make(map[Pair]int),
	}
}

func (m *Manager) Len() int { return len(m.edges) }

// Edges returns the current edges in arena order.
func (m *Manager) Edges() []*Edge { return slices.Clone(m.edges) }

func (m *Manager) Between(a, b Cell) (*Edge, bool) {
	i, ok := m.index[MakePair(a.ID(), b.ID())]
	if !ok {
		return nil, false
	}
	return m.edges[i], true
}

func (m *Manager) AreConnected(a, b Cell) bool {
	_, ok := m.index[MakePair(a.ID(), b.ID())]
	return ok
}

// Connect creates the edge between a and b. Connecting an already connected
// pair returns the existing edge.
func (m *Manager) Connect(a, b Cell) (*Edge, error) {
	if a.ID() == b.ID() {
		return nil, fmt.Errorf("connect cell %d to itself: %w", a.ID(), dynamo.ErrInvalidState)
	}
	if e, ok := m.Between(a, b); ok {
		return e, nil
	}
	if a.ID() > b.ID() {
		a, b = b, a
	}

	e := &Edge{
		Connection: m.build(a, b),
		pair:       MakePair(a.ID(), b.ID()),
		c0:         a,
		c1:         b,
	}
	m.index[e.pair] = len(m.edges)
	m.edges = append(m.edges, e)
	a.Attach(e)
	b.Attach(e)
	return e, nil
}

// build derives the connection parameters from both membranes, weighting
// each by its cell's volume.
func (m *Manager) build(c0, c1 Cell) *connection.Connection {
	m0, m1 := c0.Membrane(), c1.Membrane()
	v0, v1 := m0.Volume(), m1.Volume()
	total := m.tol.Round(v0 + v1)

	k := m.tol.Round((m0.Stiffness()*v0 + m1.Stiffness()*v1) / total)
	dr := m.tol.Round((m0.DampRatio()*v0 + m1.DampRatio()*v1) / total)
	rest := m.tol.Round(membrane.ConnectionLength(c0, c1, m.policy))

	spring := force.NewSpring(k, m.tol.Round(force.DampingFromRatio(dr, c0.Mass()+c1.Mass(), k)), rest)
	flex := [2]force.Joint{jointFor(m0, dr), jointFor(m1, dr)}

	ak := (m0.AngularStiffness() + m1.AngularStiffness()) / 2
	inertia := m0.MomentOfInertia() + m1.MomentOfInertia()
	torsion := force.NewTorsion(ak, force.DampingFromRatio(dr, inertia, ak),
		math.Min(m0.MaxBendAngle(), m1.MaxBendAngle()))

	return connection.New(c0, c1, spring).WithJoints(flex, torsion)
}

func jointFor(mem *membrane.Membrane, dr float64) force.Joint {
	k := mem.AngularStiffness()
	return force.NewJoint(k, force.DampingFromRatio(dr, mem.MomentOfInertia()*2, k), mem.MaxBendAngle())
}

// Disconnect removes the edge between a and b from the arena and from both
// cells' adjacency. It reports whether an edge existed.
func (m *Manager) Disconnect(a, b Cell) bool {
	p := MakePair(a.ID(), b.ID())
	i, ok := m.index[p]
	if !ok {
		return false
	}
	e := m.edges[i]
	e.c0.Detach(e)
	e.c1.Detach(e)

	last := len(m.edges) - 1
	if i != last {
		m.edges[i] = m.edges[last]
		m.index[m.edges[i].pair] = i
	}
	m.edges[last] = nil
	m.edges = m.edges[:last]
	delete(m.index, p)
	return true
}

// DisconnectAll removes every edge touching c. It must be called before c
// leaves the simulation.
func (m *Manager) DisconnectAll(c Cell) int {
	var others []Cell
	for _, e := range m.edges {
		if e.pair.Lo == c.ID() || e.pair.Hi == c.ID() {
			others = append(others, e.Other(c))
		}
	}
	for _, o := range others {
		m.Disconnect(c, o)
	}
	return len(others)
}

// Detect finds new contacts among cells and commits them. It returns the
// number of edges created.
func (m *Manager) Detect(cells []Cell, p Partition) int {
	for _, e := range m.edges {
		e.UpdateLengthDirection()
	}

	p.Clear()
	for _, c := range cells {
		p.Insert(c)
	}

	type candidate struct {
		pair Pair
		a, b Cell
	}
	pending := make(map[Pair]candidate)

	for _, group := range p.Batches() {
		found := make([][]candidate, len(group))
		dynamo.RunBatches(len(group), m.workers, func(i int) {
			batch := group[i]
			for j := 0; j < len(batch); j++ {
				for k := j + 1; k < len(batch); k++ {
					a, b := batch[j], batch[k]
					if a.ID() == b.ID() || m.AreConnected(a, b) {
						continue
					}
					if m.touching(a, b) {
						if a.ID() > b.ID() {
							a, b = b, a
						}
						found[i] = append(found[i], candidate{MakePair(a.ID(), b.ID()), a, b})
					}
				}
			}
		})
		for _, f := range found {
			for _, c := range f {
				pending[c.pair] = c
			}
		}
	}

	pairs := make([]Pair, 0, len(pending))
	for pr := range pending {
		pairs = append(pairs, pr)
	}
	slices.SortFunc(pairs, comparePairs)

	for _, pr := range pairs {
		c := pending[pr]
		if _, err := m.Connect(c.a, c.b); err != nil {
			m.log.Warn("skipping connection", "lo", pr.Lo, "hi", pr.Hi, "err", err)
		}
	}
	if len(pairs) > 0 {
		m.log.Debug("cell connections created", "count", len(pairs), "total", len(m.edges))
	}
	return len(pairs)
}

// touching is the narrow-phase test. Both cells are only read.
func (m *Manager) touching(a, b Cell) bool {
	ab := m.tol.RoundVec(b.Position().Sub(a.Position()))
	maxLen := a.Membrane().CorrectedRadius() + b.Membrane().CorrectedRadius()
	dist := ab.Len()
	if dist == 0 || m.tol.Less(maxLen, dist) {
		return false
	}
	dir := ab.Mul(1 / dist)
	da := m.tol.Round(a.Membrane().MembraneDistance(dir, m.tol))
	db := m.tol.Round(b.Membrane().MembraneDistance(dir.Mul(-1), m.tol))
	return dist < da+db
}

// Update revalidates every edge, refreshes the surviving edges' parameters,
// applies their forces, and finally removes the edges that failed. It
// returns the number of edges removed.
func (m *Manager) Update(dt float64) int {
	for _, e := range m.edges {
		e.UpdateLengthDirection()
	}

	var broken []*Edge
	for _, e := range m.edges {
		if !m.valid(e) {
			broken = append(broken, e)
			continue
		}
		m.refresh(e)
		e.ComputeForces(dt)
	}

	for _, e := range broken {
		m.Disconnect(e.c0, e.c1)
	}
	if len(broken) > 0 {
		m.log.Debug("cell connections removed", "count", len(broken), "total", len(m.edges))
	}
	return len(broken)
}

func (m *Manager) valid(e *Edge) bool {
	mem0, mem1 := e.c0.Membrane(), e.c1.Membrane()
	if m.tol.Less(mem0.CorrectedRadius()+mem1.CorrectedRadius(), e.Length()) {
		return false
	}
	dir := m.tol.RoundVec(e.Direction())
	return containsCell(mem0.ConnectedCells(dir, m.tol), e.c1) &&
		containsCell(mem1.ConnectedCells(dir.Mul(-1), m.tol), e.c0)
}

// refresh scales the joints by the contact surface and recomputes the rest
// length from the current corrected radii and adhesion.
func (m *Manager) refresh(e *Edge) {
	mem0, mem1 := e.c0.Membrane(), e.c1.Membrane()
	l := e.Length()
	meanR := (mem0.Radius() + mem1.Radius()) / 2
	surface := m.tol.Round(math.Pi * (l*l + meanR*meanR))

	if e.Flex != nil {
		e.Flex[0].SetCurrentKCoef(surface)
		e.Flex[1].SetCurrentKCoef(surface)
	}
	if e.Torsion != nil {
		e.Torsion.SetCurrentKCoef(surface)
	}
	e.Spring.SetRestLength(m.tol.Round(membrane.ConnectionLength(e.c0, e.c1, m.policy)))
}

func containsCell(cells []membrane.Cell, c Cell) bool {
	return slices.ContainsFunc(cells, func(x membrane.Cell) bool { return x.ID() == c.ID() })
}

func comparePairs(a, b Pair) int {
	if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
		return c
	}
	return cmp.Compare(a.Hi, b.Hi)
}
