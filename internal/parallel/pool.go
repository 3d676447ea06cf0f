// Package parallel provides the fork-join primitive used by the morphology
// engine: a fixed-size pool of goroutines that runs a batch of independent
// tasks and returns once every task in the batch has finished.
//
// Tasks in a batch have no ordering relative to each other. Callers are
// expected to hand the pool tasks that touch disjoint memory; the pool itself
// provides no synchronization beyond the final join.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed-size pool of worker goroutines.
//
// Workers are started once by NewPool and reused by every ExecuteAll call
// until Close, so an iterative algorithm pays the goroutine start-up cost a
// single time.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queue feeds work items to the workers.
	queue chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to exit.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// mu keeps Close from closing done while a batch is being queued.
	mu sync.RWMutex
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan func(), workers*2),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case work := <-p.queue:
			work()
		}
	}
}

// drain runs whatever is still queued when the pool shuts down.
func (p *Pool) drain() {
	for {
		select {
		case work := <-p.queue:
			work()
		default:
			return
		}
	}
}

// ExecuteAll runs every task and blocks until all of them have returned.
//
// Nil tasks are skipped. If the pool has been closed the tasks run
// sequentially on the calling goroutine, so a batch is never left partially
// executed.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		for _, fn := range work {
			if fn != nil {
				fn()
			}
		}
		return
	}

	var batch sync.WaitGroup
	for _, fn := range work {
		if fn == nil {
			continue
		}
		batch.Add(1)
		task := fn
		wrapped := func() {
			defer batch.Done()
			task()
		}
		p.queue <- wrapped
	}
	p.mu.RUnlock()
	batch.Wait()
}

// Close stops the workers once the tasks already queued have run.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still dispatches to its workers.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
