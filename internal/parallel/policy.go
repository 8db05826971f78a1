package parallel

import (
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Policy decides between serial and pool execution.
//
// Parallel execution is chosen only when the element count exceeds
// MinChunkSize per thread, so small inputs never pay pool overhead. A nil
// *Policy is valid and always runs serially.
type Policy struct {
	cfg     Config
	threads int
	pool    *Pool
}

// NewPolicy creates a policy. A worker pool is started only when more than
// one thread is configured; release it with Close.
func NewPolicy(cfg Config) *Policy {
	p := &Policy{cfg: cfg, threads: cfg.Threads()}
	if p.threads > 1 {
		p.pool = NewPool(p.threads)
	}
	klog.V(2).Infof("parallel: policy with %d threads, min chunk %d", p.threads, cfg.MinChunkSize)
	return p
}

// Serial returns a single-threaded policy.
func Serial() *Policy {
	return NewPolicy(Config{NumThreads: 1, MinChunkSize: DefaultMinChunkSize})
}

// Config returns the configuration the policy was built from.
func (p *Policy) Config() Config {
	if p == nil {
		return Config{NumThreads: 1}
	}
	return p.cfg
}

// Threads returns the resolved thread count.
func (p *Policy) Threads() int {
	if p == nil {
		return 1
	}
	return p.threads
}

// Pool returns the worker pool, or nil for a single-threaded policy.
func (p *Policy) Pool() *Pool {
	if p == nil {
		return nil
	}
	return p.pool
}

// ShouldParallelize reports whether n elements of work go to the pool.
func (p *Policy) ShouldParallelize(n int) bool {
	return p.Pool() != nil && n > p.cfg.MinChunkSize*p.threads
}

// ShouldParallelizeBatches reports whether n independent batch tasks go to
// the pool (each task then runs single-threaded).
func (p *Policy) ShouldParallelizeBatches(n int) bool {
	return p.Pool() != nil && n > BatchFactor*p.threads
}

// Run executes fn over [0, n), splitting the range across the pool when
// ShouldParallelize(n) holds and calling fn(0, n) inline otherwise.
func (p *Policy) Run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if !p.ShouldParallelize(n) {
		fn(0, n)
		return
	}
	p.pool.ParallelFor(n, fn)
}

// Each runs fn(i) for i in [0, tasks): on the pool when one exists, inline
// otherwise. Tasks must write disjoint data.
func (p *Policy) Each(tasks int, fn func(i int)) {
	if pool := p.Pool(); pool != nil {
		pool.Each(tasks, fn)
		return
	}
	for i := range tasks {
		fn(i)
	}
}

// EachErr runs fn(i) for i in [0, tasks) with at most Threads tasks in
// flight and returns the first error. All tasks run to completion or error
// before EachErr returns.
func (p *Policy) EachErr(tasks int, fn func(i int) error) error {
	if p.Threads() <= 1 || tasks <= 1 {
		for i := range tasks {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(p.threads)
	for i := range tasks {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// Close stops the worker pool, if any.
func (p *Policy) Close() {
	if pool := p.Pool(); pool != nil {
		pool.Close()
	}
}
