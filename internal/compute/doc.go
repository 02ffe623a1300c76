// Package compute provides execution backends for data-parallel solver
// kernels.
//
// Two backends are available:
//
//   - [Serial]: inline execution, used on single-core hosts and in tests
//     that need deterministic scheduling
//   - [Pool]: persistent worker pool sized to the host CPU count
//
// Dispatch acts as a barrier: it returns only after the whole index
// range has been processed. Solvers rely on this to order constraint
// color passes and the collision detect/apply phases.
//
// Backends are passed explicitly to their consumers. There is no
// package-level active backend.
package compute
