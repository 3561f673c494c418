// Package executor provides the bounded worker pool that keeps storage I/O
// off the caller's cooperative event loop.
package executor

import (
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted to a closed pool.
var ErrClosed = errors.New("executor: pool is closed")

// DefaultWorkers bounds concurrent storage calls (and so concurrent file
// handles against the engine).
const DefaultWorkers = 2

// Pool is a fixed-size worker pool. Workers are started lazily on first
// submission. Submitted calls always run to completion and are never retried
// by the pool; retries, if any, are the caller's responsibility.
type Pool struct {
	workers int

	mu     sync.Mutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// New creates a pool with the given number of workers. Values below 1 select
// DefaultWorkers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{workers: workers}
}

// start spins up the workers. Caller must hold mu.
func (p *Pool) start() {
	if p.tasks != nil {
		return
	}
	p.tasks = make(chan func())
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
}

// Do runs fn on the pool and waits for it to finish, returning fn's error.
func (p *Pool) Do(fn func() error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.start()
	done := make(chan error, 1)
	p.tasks <- func() { done <- fn() }
	p.mu.Unlock()

	return <-done
}

// Close stops accepting work and waits for in-flight calls to finish. It is
// safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.tasks != nil
	if started {
		close(p.tasks)
	}
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}
}
