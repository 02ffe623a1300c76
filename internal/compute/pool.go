package compute

import (
	"runtime"
	"sync"
)

// minChunk keeps per-task overhead below the cost of the work itself
// for small ranges.
const minChunk = 64

type task struct {
	k          Kernel
	start, end int
	done       *sync.WaitGroup
}

// Pool is a persistent worker pool. Workers live until Close; each
// Dispatch splits its range into chunks and joins them before returning.
type Pool struct {
	workers int
	tasks   chan task
	wg      sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan task, workers*4),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.k(t.start, t.end)
		t.done.Done()
	}
}

func (p *Pool) Name() string { return "threadpool" }
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) Dispatch(n int, k Kernel) {
	if n <= 0 {
		return
	}
	chunk := (n + p.workers - 1) / p.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	if chunk >= n {
		k(0, n)
		return
	}

	var done sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		done.Add(1)
		p.tasks <- task{k: k, start: start, end: end, done: &done}
	}
	done.Wait()
}

// Close drains the pool and joins all workers. Dispatch must not be
// called after Close.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
