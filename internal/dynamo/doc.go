// Package dynamo provides the core primitives shared by the cell simulation.
//
// The package defines the capability interfaces every other package is
// written against:
//
//   - [Vec]: 3D vector (mgl64.Vec3)
//   - [Node]: anything a connection can pull on (cells, static points)
//   - [Body]: a node the integrator can move
//   - [Integrator]: advances a body's position and orientation
//   - [Tolerance]: the fixed-precision rounding convention
//
// # Determinism
//
// Every floating-point comparison that decides whether a connection exists
// goes through a [Tolerance]. The tolerance is configuration, passed to the
// managers explicitly, never read from package state.
//
// # Thread Safety
//
// Nothing in this package holds mutable state except [Tolerance] values,
// which are immutable. [RunBatches] is the only place goroutines are started
// for broad-phase work.
package dynamo
