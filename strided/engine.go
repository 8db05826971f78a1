// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package strided

import (
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/matmul"
	"github.com/born-ml/strided/internal/ops"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/traverse"
)

// ParallelConfig controls thread count and the parallel threshold.
type ParallelConfig = parallel.Config

// Kernel names.
const (
	KernelNative = kernel.NameNative
	KernelGonum  = kernel.NameGonum
)

// Environment variables read by ConfigFromEnv, besides those of the
// parallel policy (STRIDED_NUM_THREADS, STRIDED_MIN_CHUNK).
const (
	EnvKernel       = "STRIDED_KERNEL"
	EnvDefaultOrder = "STRIDED_ORDER"
)

// Config configures an Engine.
type Config struct {
	// Parallel sets the worker count (0 = GOMAXPROCS) and the per-thread
	// element threshold.
	Parallel ParallelConfig

	// DefaultOrder decides whenever an order cannot be inferred from the
	// operands. Must be RowMajor or ColMajor.
	DefaultOrder Order

	// MatMulOrder is the memory order of matmul outputs allocated by
	// MatMul. Auto follows the operands.
	MatMulOrder Order

	// Kernel names the matmul kernel: KernelNative or KernelGonum.
	Kernel string
}

// DefaultConfig returns the defaults: all CPUs, row-major fallback,
// inferred matmul output order and the native kernel.
func DefaultConfig() Config {
	return Config{
		Parallel:     parallel.DefaultConfig(),
		DefaultOrder: RowMajor,
		MatMulOrder:  Auto,
		Kernel:       KernelNative,
	}
}

// ConfigFromEnv returns DefaultConfig overlaid with the STRIDED_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	pc, err := parallel.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.Parallel = pc
	if v, ok := os.LookupEnv(EnvKernel); ok {
		cfg.Kernel = v
	}
	if v, ok := os.LookupEnv(EnvDefaultOrder); ok {
		o, err := traverse.ParseOrder(v)
		if err != nil {
			return cfg, errors.Wrap(err, EnvDefaultOrder)
		}
		cfg.DefaultOrder = o
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.DefaultOrder.IsFixed() {
		return errors.Wrapf(ErrUnknownOrder, "default order must be RowMajor or ColMajor, got %s", c.DefaultOrder)
	}
	if _, err := kernel.New[float64](c.Kernel); err != nil {
		return err
	}
	if c.Parallel.NumThreads < 0 || c.Parallel.MinChunkSize < 0 {
		return errors.Errorf("invalid parallel config %+v", c.Parallel)
	}
	return nil
}

// Engine carries the configuration and worker pool shared by every
// operation. It is safe for concurrent use; release it with Close.
type Engine struct {
	cfg    Config
	policy *parallel.Policy

	d32 *matmul.Dispatcher[float32]
	d64 *matmul.Dispatcher[float64]
}

// NewEngine validates cfg and starts the worker pool.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, policy: parallel.NewPolicy(cfg.Parallel)}
	var err error
	if e.d32, err = newDispatcher[float32](e); err != nil {
		e.Close()
		return nil, err
	}
	if e.d64, err = newDispatcher[float64](e); err != nil {
		e.Close()
		return nil, err
	}
	klog.V(2).Infof("strided: engine with %d threads, kernel %s, default order %s",
		e.policy.Threads(), cfg.Kernel, cfg.DefaultOrder)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Threads returns the number of worker threads.
func (e *Engine) Threads() int {
	return e.policy.Threads()
}

// Close stops the worker pool.
func (e *Engine) Close() {
	e.policy.Close()
}

// dispatcher returns the engine's dispatcher for T. float32 and float64
// share the ones built by NewEngine; named float types get a fresh one.
func dispatcher[T Float](e *Engine) (*matmul.Dispatcher[T], error) {
	if d, ok := any(e.d64).(*matmul.Dispatcher[T]); ok {
		return d, nil
	}
	if d, ok := any(e.d32).(*matmul.Dispatcher[T]); ok {
		return d, nil
	}
	return newDispatcher[T](e)
}

func newDispatcher[T Float](e *Engine) (*matmul.Dispatcher[T], error) {
	k, err := kernel.New[T](e.cfg.Kernel)
	if err != nil {
		return nil, err
	}
	return matmul.New(e.policy, k, e.cfg.MatMulOrder, e.cfg.DefaultOrder), nil
}

// PlanMatMul returns the geometry MatMul would use for a·b.
func PlanMatMul(e *Engine, a, b Layout) (MatMulPlan, error) {
	return matmul.NewPlan(a, b, e.cfg.MatMulOrder, e.cfg.DefaultOrder)
}

// MatMul returns a·b in a freshly allocated view.
//
// Ranks follow NumPy's matmul: two vectors give a scalar, a vector on the
// left or right is treated as a row or column and dropped from the result,
// and leading axes beyond two are batch axes broadcast against each other.
func MatMul[T Float](e *Engine, a, b View[T]) (View[T], error) {
	d, err := dispatcher[T](e)
	if err != nil {
		return View[T]{}, err
	}
	return d.MatMul(a, b)
}

// Gemm computes c = alpha*(a·b) + beta*c in place. c must have the product's
// shape and must not share memory with a or b.
func Gemm[T Float](e *Engine, c, a, b View[T], alpha, beta T) error {
	d, err := dispatcher[T](e)
	if err != nil {
		return err
	}
	return d.Execute(c, a, b, alpha, beta)
}

// Assign copies src into dst, broadcasting src to dst's shape.
func Assign[T DType](e *Engine, dst, src View[T]) error {
	return ops.Assign(e.policy, dst, src)
}

// Fill sets every element of dst to v.
func Fill[T DType](e *Engine, dst View[T], v T) error {
	return ops.Fill(e.policy, dst, v)
}

// Map stores f(src[i]) into dst[i], broadcasting src to dst's shape.
func Map[T, U DType](e *Engine, dst View[U], src View[T], f func(T) U) error {
	return ops.Map(e.policy, dst, src, f)
}

// Zip stores f(a[i], b[i]) into dst[i], broadcasting a and b to dst's
// shape.
func Zip[A, B, C DType](e *Engine, dst View[C], a View[A], b View[B], f func(A, B) C) error {
	return ops.Zip(e.policy, dst, a, b, f)
}

// Sum returns the sum of all elements of src. The result does not depend on
// the thread count.
func Sum[T Float](e *Engine, src View[T]) T {
	return ops.Sum(e.policy, src)
}

// Copy returns a dense copy of src in the given order (RowMajor or
// ColMajor; anything else uses the engine's default order).
func Copy[T DType](e *Engine, src View[T], order Order) (View[T], error) {
	if !order.IsFixed() {
		order = traverse.ResolveOrder(order, []Layout{src.Layout()}, e.cfg.DefaultOrder)
	}
	dst, err := Zeros[T](src.Shape(), order != ColMajor)
	if err != nil {
		return View[T]{}, err
	}
	if err := ops.Assign(e.policy, dst, src); err != nil {
		return View[T]{}, err
	}
	return dst, nil
}
