// Package viz renders running simulations in the terminal.
//
// A Braille [Canvas] packs a 160x112 pixel surface into a standard
// 80x28 cell window; [Camera] projects body wireframes onto it with a
// painter's sort. [Model] is a Bubble Tea program that steps a world
// at a fixed cadence and draws every constraint as an edge.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset bodies to their build state
//	P     - Poke the scene with an impulse
//	O     - Pin/release particles near the scene center
//	W     - Wake every body
//	X/Y   - Orbit the camera (shift reverses)
//	+/-   - Zoom
//	[ ]   - Step through the replay buffer
//	?     - Toggle the help overlay
package viz
