// Package viz draws cell worlds in the terminal.
//
// Cells are projected through a [Camera] onto a braille [Canvas] and drawn
// as circles of their corrected radius, with connections as center lines
// and static surfaces as triangle outlines.
//
//   - [Model]: interactive Bubble Tea view that steps a world live
//   - [Watcher]: frame-dropping observer for batch runs
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Rebuild the scene
//	D     - Divide the most pressurized cell
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
