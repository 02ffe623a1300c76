package compute

import "runtime"

// Kernel processes the half-open index range [start, end).
type Kernel func(start, end int)

// Backend executes data-parallel kernels over index ranges. Dispatch
// returns only after every range has been processed, so consecutive
// dispatches are barrier-separated. Implementations must allow
// concurrent Dispatch calls from independent goroutines.
type Backend interface {
	Name() string
	Workers() int
	Dispatch(n int, k Kernel)
	Close()
}

// Auto picks the thread pool on multi-core hosts and the serial
// backend otherwise.
func Auto() Backend {
	if runtime.NumCPU() > 1 {
		return NewPool(0)
	}
	return Serial{}
}
