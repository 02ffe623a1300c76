package compute

// Serial runs kernels inline on the calling goroutine.
type Serial struct{}

func (Serial) Name() string { return "serial" }
func (Serial) Workers() int { return 1 }
func (Serial) Close()       {}

func (Serial) Dispatch(n int, k Kernel) {
	if n <= 0 {
		return
	}
	k(0, n)
}
