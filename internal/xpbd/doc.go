// Package xpbd implements an extended position-based dynamics solver for
// deformable bodies.
//
// The package defines the particle and constraint data model plus the
// substep solver:
//
//   - [Particle]: point mass with transient force accumulator
//   - [Constraint]: compliant distance constraint with warm-started multiplier
//   - [VolumeConstraint]: tetrahedral volume preservation with pressure scaling
//   - [Collider]: static signed-distance shape (plane, sphere, box)
//   - [Solver]: owns solver state and advances it frame by frame
//
// A frame is split into substeps no longer than [Params].TargetDelta.
// Each substep decays multipliers, integrates velocities, runs the
// constraint iterations over barrier-separated color groups, solves
// volumes and collisions, and derives velocities from positions.
//
// # Thread Safety
//
// A Solver is stepped from a single goroutine. The compute backend
// parallelizes within a substep; constraints sharing a particle are kept
// in different color groups so passes never race. Distinct solvers may
// step concurrently, including on a shared backend.
//
// # Failure Handling
//
// NaN or Inf particle state after a substep freezes the body at its last
// finite configuration and marks the solver degraded instead of
// propagating the corruption. Reset clears the condition.
package xpbd
