// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0
// Adapted from github.com/ajroetker/go-highway/hwy/contrib/workerpool: Each
// and inline execution after Close were added.

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation and
// reused by every parallel call, so small operations do not pay for
// goroutine start-up.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// NewPool creates a pool with numWorkers persistent workers.
// If numWorkers <= 0, uses GOMAXPROCS.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool. Pending work completes; calling Close more than
// once is safe. A closed pool runs later calls inline.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor splits [0, n) into at most NumWorkers contiguous ranges and
// runs fn on each. Blocks until all ranges complete.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers
	tasks := (n + chunkSize - 1) / chunkSize

	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := range tasks {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		p.workC <- workItem{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}
	wg.Wait()
}

// Each runs fn(i) for every i in [0, tasks) on the pool, each task as its
// own work item. Blocks until all tasks complete.
func (p *Pool) Each(tasks int, fn func(i int)) {
	if tasks <= 0 {
		return
	}
	if tasks == 1 || p.closed.Load() {
		for i := range tasks {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := range tasks {
		p.workC <- workItem{
			fn:      func() { fn(i) },
			barrier: &wg,
		}
	}
	wg.Wait()
}
