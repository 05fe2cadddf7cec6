package sim

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/cellsim/internal/cell"
	"github.com/san-kum/cellsim/internal/contact"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/graph"
	"github.com/san-kum/cellsim/internal/membrane"
	"github.com/san-kum/cellsim/internal/mesh"
	"github.com/san-kum/cellsim/internal/space"
)

// Options configures a World.
type Options struct {
	Tolerance dynamo.Tolerance
	Policy    membrane.LengthPolicy
	Workers   int
	Gravity   dynamo.Vec
	Viscosity float64
	CellSize  float64
	Logger    *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Tolerance: dynamo.DefaultTolerance(),
		Policy:    membrane.DefaultLengthPolicy(),
		CellSize:  4 * membrane.DefaultRadius,
	}
}

// World owns the cells, the surfaces and both connection managers, and
// drives one simulation step at a time.
type World struct {
	opts       Options
	integrator dynamo.Integrator
	log        *slog.Logger

	cells  []*cell.Cell
	byID   map[uint64]*cell.Cell
	nextID uint64

	graph    *graph.Manager
	contacts *contact.Manager
	grid     *space.Grid[graph.Cell]
	meshes   *space.MeshIndex

	steps int
	time  float64
}

func NewWorld(integrator dynamo.Integrator, opts Options) *World {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 4 * membrane.DefaultRadius
	}
	return &World{
		opts:       opts,
		integrator: integrator,
		log:        logger,
		byID:       make(map[uint64]*cell.Cell),
		nextID:     1,
		graph:      graph.New(opts.Tolerance, opts.Policy, opts.Workers, logger),
		contacts:   contact.NewManager(opts.Tolerance, opts.Policy, logger),
		grid:       space.NewGrid[graph.Cell](opts.CellSize),
		meshes:     space.NewMeshIndex(opts.CellSize),
	}
}

func (w *World) Graph() *graph.Manager       { return w.graph }
func (w *World) Contacts() *contact.Manager  { return w.contacts }
func (w *World) Surfaces() []*mesh.Surface   { return w.meshes.Surfaces() }
func (w *World) Time() float64               { return w.time }
func (w *World) Steps() int                  { return w.steps }
func (w *World) Tolerance() dynamo.Tolerance { return w.opts.Tolerance }

// NextID reserves a fresh cell ID.
func (w *World) NextID() uint64 {
	id := w.nextID
	w.nextID++
	return id
}

// Cells returns the cells in insertion order.
func (w *World) Cells() []*cell.Cell { return slices.Clone(w.cells) }

func (w *World) Cell(id uint64) (*cell.Cell, bool) {
	c, ok := w.byID[id]
	return c, ok
}

func (w *World) AddCell(c *cell.Cell) error {
	if _, ok := w.byID[c.ID()]; ok {
		return fmt.Errorf("add cell %d: %w", c.ID(), dynamo.ErrDuplicateCell)
	}
	w.cells = append(w.cells, c)
	w.byID[c.ID()] = c
	if c.ID() >= w.nextID {
		w.nextID = c.ID() + 1
	}
	return nil
}

// RemoveCell disconnects a cell from every neighbor and surface before
// dropping it.
func (w *World) RemoveCell(id uint64) error {
	c, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("remove cell %d: %w", id, dynamo.ErrUnknownCell)
	}
	edges := w.graph.DisconnectAll(c)
	contacts := w.contacts.Forget(c)
	w.cells = slices.DeleteFunc(w.cells, func(x *cell.Cell) bool { return x == c })
	delete(w.byID, id)
	w.log.Debug("cell removed", "id", id, "edges", edges, "contacts", contacts)
	return nil
}

// Divide splits a cell along axis. Both cells are reset to the base radius
// and placed half a base radius from the old center; the mother loses its
// links so the next detection pass rebuilds them.
func (w *World) Divide(id uint64, axis dynamo.Vec) (*cell.Cell, error) {
	mother, ok := w.byID[id]
	if !ok {
		return nil, fmt.Errorf("divide cell %d: %w", id, dynamo.ErrUnknownCell)
	}
	dir := dynamo.Normalized(axis)
	if dir == dynamo.Zero {
		return nil, fmt.Errorf("divide cell %d along zero axis: %w", id, dynamo.ErrParameterBounds)
	}

	w.graph.DisconnectAll(mother)
	offset := dir.Mul(mother.Membrane().BaseRadius() * 0.5)
	center := mother.Position()

	daughter := mother.Daughter(w.NextID(), center.Add(offset))
	mother.SetPosition(center.Sub(offset))
	mother.SetPrevPosition(mother.Position())
	mother.Membrane().Division()
	daughter.Membrane().Division()

	if err := w.AddCell(daughter); err != nil {
		return nil, err
	}
	w.log.Debug("cell divided", "mother", id, "daughter", daughter.ID())
	return daughter, nil
}

// AddSurface registers a static surface. Contacts with it are created on the
// next step.
func (w *World) AddSurface(s *mesh.Surface) {
	w.meshes.Add(s)
}

// RemoveSurface drops a surface; its contacts are evicted on the next step.
func (w *World) RemoveSurface(name string) bool {
	return w.meshes.Remove(name)
}

func (w *World) graphCells() []graph.Cell {
	out := make([]graph.Cell, len(w.cells))
	for i, c := range w.cells {
		out[i] = c
	}
	return out
}

func (w *World) contactCells() []contact.Cell {
	out := make([]contact.Cell, len(w.cells))
	for i, c := range w.cells {
		out[i] = c
	}
	return out
}

// Step advances the world by dt:
//
//  1. cell-cell connections are detected, revalidated and apply forces
//  2. surface contacts are refreshed and apply forces
//  3. pressure is derived from the contact forces
//  4. gravity and drag are added and every cell is integrated
//  5. corrected radii are recomputed for volume-conserving membranes
func (w *World) Step(dt float64) (Stats, error) {
	for _, c := range w.cells {
		c.ResetForces()
	}

	gcells := w.graphCells()
	created := w.graph.Detect(gcells, w.grid)
	removed := w.graph.Update(dt)

	w.meshes.Refresh()
	cCreated, cEvicted := w.contacts.Refresh(w.contactCells(), w.meshes)
	w.contacts.ComputeForces(dt)

	tol := w.opts.Tolerance
	for _, c := range w.cells {
		c.Membrane().ComputePressure(tol)
	}

	for _, c := range w.cells {
		if w.opts.Gravity != dynamo.Zero {
			c.AddForce(w.opts.Gravity.Mul(c.Mass()))
		}
		if w.opts.Viscosity > 0 {
			c.AddForce(c.Velocity().Mul(-w.opts.Viscosity))
		}
		w.integrator.UpdatePosition(c, dt)
		w.integrator.UpdateOrientation(c, dt)
	}

	for _, c := range w.cells {
		if c.Membrane().VolumeConservation() {
			c.Membrane().CompensateVolumeLoss(tol)
		}
	}

	w.steps++
	w.time += dt

	for _, c := range w.cells {
		if !dynamo.IsValid(c.Position()) || !dynamo.IsValid(c.Velocity()) {
			return Stats{}, dynamo.SimError{
				Time:    w.time,
				Step:    w.steps,
				Message: fmt.Sprintf("cell %d diverged", c.ID()),
				Err:     dynamo.ErrInvalidState,
			}
		}
	}

	st := w.Stats()
	st.EdgesCreated, st.EdgesRemoved = created, removed
	st.ContactsCreated, st.ContactsEvicted = cCreated, cEvicted
	return st, nil
}
