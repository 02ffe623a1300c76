package xpbd

import (
	"errors"
	"fmt"
)

// Construction and stepping errors.
var (
	// ErrNoParticles indicates a topology with an empty particle set.
	ErrNoParticles = errors.New("xpbd: topology has no particles")

	// ErrNoConstraints indicates a topology whose constraint set is empty
	// after deduplication.
	ErrNoConstraints = errors.New("xpbd: topology has no constraints")

	// ErrIndexRange indicates a constraint referencing a particle index
	// outside the particle set.
	ErrIndexRange = errors.New("xpbd: constraint references particle out of range")

	// ErrRestLength indicates a distance constraint shorter than the
	// minimum stable rest length.
	ErrRestLength = errors.New("xpbd: rest length below minimum")

	// ErrRestVolume indicates a tetrahedron whose rest volume magnitude is
	// below the minimum.
	ErrRestVolume = errors.New("xpbd: rest volume magnitude below minimum")

	// ErrInvMass indicates a negative or non-finite inverse mass.
	ErrInvMass = errors.New("xpbd: inverse mass must be non-negative and finite")

	// ErrCompliance indicates a negative compliance value.
	ErrCompliance = errors.New("xpbd: compliance must be non-negative")

	// ErrBadPosition indicates a non-finite particle position at build time.
	ErrBadPosition = errors.New("xpbd: particle position is not finite")

	// ErrBadParams indicates invalid solver parameters.
	ErrBadParams = errors.New("xpbd: invalid solver parameters")

	// ErrColorCount indicates a color assignment that does not cover the
	// constraint set.
	ErrColorCount = errors.New("xpbd: color assignment does not match constraint count")

	// ErrNonFinite indicates NaN or Inf particle state after a substep.
	ErrNonFinite = errors.New("xpbd: non-finite particle state detected")

	// ErrDegraded indicates the solver froze after a numerical failure and
	// will not step again until reset.
	ErrDegraded = errors.New("xpbd: solver degraded, reset required")
)

// StepError records where in a frame a numerical failure occurred.
type StepError struct {
	Substep   int
	Time      float64
	NonFinite int
	Wrapped   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("substep %d at t=%.6f: %v (%d particles non-finite)",
		e.Substep, e.Time, e.Wrapped, e.NonFinite)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
