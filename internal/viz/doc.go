// Package viz renders a running flock in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one simulation with parameter tuning
//   - [Picker]: preset menu that launches a [Model]
//   - [Canvas]: Braille-based pixel canvas, 2×4 dots per cell
//
// Particles are colored by local order: the alignment of their neighbors.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset with the current parameters
//	N     - Reset with the next seed
//	Tab   - Select parameter
//	↑/↓   - Change selected parameter by ±5%
//	H     - Cycle heading initialization
//	P     - Cycle position initialization
//	T     - Toggle trails
//	L     - Toggle neighbor links
//	C     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
