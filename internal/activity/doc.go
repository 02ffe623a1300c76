// Package activity gates per-body solving with a sleep state machine.
//
// [Controller] is the hysteresis machine of one body: sustained
// sub-threshold motion over a time window puts the body to sleep;
// explicit calls, contact impulses and proximity broadcasts wake it.
// While a body sleeps its entire substep loop is skipped, which is the
// main lever for scaling many simultaneous bodies.
//
// [SpatialIndex] is a uniform-grid point index rebuilt by the world each
// tick and handed to wake decisions as read-only state, so proximity
// queries never touch a shared cache.
package activity
