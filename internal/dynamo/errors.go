package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation setup.
var (
	// ErrInvalidState indicates a body with NaN or Inf position or velocity.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownCell indicates a cell that is not part of the world.
	ErrUnknownCell = errors.New("dynamo: cell not present in world")

	// ErrDuplicateCell indicates a cell added twice.
	ErrDuplicateCell = errors.New("dynamo: cell already present in world")

	// ErrDegenerateTriangle indicates a mesh face with collinear vertices.
	ErrDegenerateTriangle = errors.New("dynamo: degenerate triangle")

	// ErrIndexOutOfRange indicates a triangle referencing a missing vertex.
	ErrIndexOutOfRange = errors.New("dynamo: vertex index out of range")
)

// SimError reports a failure at a specific simulation step.
type SimError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return e.Err }
