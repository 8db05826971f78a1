package matmul

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
	"github.com/born-ml/strided/internal/traverse"
)

// Dispatcher runs matrix products of element type T.
//
// Batches run in parallel, one single-threaded kernel call per task, when
// there are more than parallel.BatchFactor batches per thread. Otherwise the
// batches run in order and each kernel call may use the whole pool. The two
// levels are never combined.
type Dispatcher[T tensor.Float] struct {
	policy   *parallel.Policy
	kernel   kernel.Kernel[T]
	order    traverse.Order
	fallback traverse.Order
}

// New creates a dispatcher. order selects the memory order of outputs
// allocated by MatMul (Auto infers it from the operands); fallback decides
// when inference is ambiguous. A nil policy runs everything serially and a
// nil kernel selects kernel.Native.
func New[T tensor.Float](policy *parallel.Policy, k kernel.Kernel[T], order, fallback traverse.Order) *Dispatcher[T] {
	if k == nil {
		k = kernel.Native[T]{}
	}
	return &Dispatcher[T]{policy: policy, kernel: k, order: order, fallback: fallback}
}

// Kernel returns the numeric kernel in use.
func (d *Dispatcher[T]) Kernel() kernel.Kernel[T] {
	return d.kernel
}

// Plan computes the geometry of a·b.
func (d *Dispatcher[T]) Plan(a, b layout.Layout) (Plan, error) {
	return NewPlan(a, b, d.order, d.fallback)
}

// MatMul allocates the output and computes a·b into it.
func (d *Dispatcher[T]) MatMul(a, b tensor.View[T]) (tensor.View[T], error) {
	p, err := d.Plan(a.Layout(), b.Layout())
	if err != nil {
		return tensor.View[T]{}, err
	}
	out := make([]T, p.Output.Size())
	c := tensor.ViewUnchecked(out, p.Output)
	if err := d.run(p, c, a, b, 1, 0); err != nil {
		return tensor.View[T]{}, err
	}
	return c, nil
}

// Execute computes c = alpha*(a·b) + beta*c. c must have the planned output
// shape, must not have broadcast axes and must not share memory with a or b.
// When beta is zero the previous contents of c are not read.
func (d *Dispatcher[T]) Execute(c, a, b tensor.View[T], alpha, beta T) error {
	p, err := d.Plan(a.Layout(), b.Layout())
	if err != nil {
		return err
	}
	if p, err = p.WithOutput(c.Layout()); err != nil {
		return err
	}
	if tensor.Overlaps(c, a) || tensor.Overlaps(c, b) {
		return errors.Wrap(layout.ErrInvalidLayout, "matmul output shares memory with an operand")
	}
	return d.run(p, c, a, b, alpha, beta)
}

// call is one kernel invocation: base offsets of c, a and b.
type call [3]int

func (d *Dispatcher[T]) run(p Plan, c, a, b tensor.View[T], alpha, beta T) error {
	if p.Kind == InnerProduct {
		v, err := d.kernel.Dot(a, b)
		if err != nil {
			return err
		}
		cd, off := c.Data(), c.Layout().Offset()
		if beta == 0 {
			cd[off] = alpha * v
		} else {
			cd[off] = alpha*v + beta*cd[off]
		}
		return nil
	}

	n := p.Batches()
	if n == 0 {
		return nil
	}
	calls := make([]call, 0, n)
	walk := traverse.NewLockstep([]layout.Layout{p.BatchC, p.BatchA, p.BatchB}, 0, n)
	offs := make([]int, 3)
	for walk.Next(offs) {
		calls = append(calls, call{offs[0], offs[1], offs[2]})
	}

	symmetric := beta == 0 && d.symmetricCandidate(p, a, b)
	exec := d.executor(p, c, a, b, alpha, beta, symmetric)

	if d.policy.ShouldParallelizeBatches(n) {
		klog.V(2).Infof("matmul: %s, %d batches in parallel, kernel %s", p.Kind, n, d.kernel.Name())
		return d.policy.EachErr(n, func(i int) error {
			return exec(calls[i], nil)
		})
	}

	var pool *parallel.Pool
	if d.policy.ShouldParallelize(p.Work()) {
		pool = d.policy.Pool()
	}
	klog.V(2).Infof("matmul: %s, %d serial batches, pooled kernel %v, kernel %s", p.Kind, n, pool != nil, d.kernel.Name())
	for _, cl := range calls {
		if err := exec(cl, pool); err != nil {
			return err
		}
	}
	return nil
}

// symmetricCandidate reports whether b's matrices are the transposes of
// a's over the same buffer, up to the per-batch offsets.
func (d *Dispatcher[T]) symmetricCandidate(p Plan, a, b tensor.View[T]) bool {
	if p.SubA.NDim() != 2 || p.SubB.NDim() != 2 || !tensor.SameBuffer(a, b) {
		return false
	}
	t := p.SubA.ReverseAxes()
	return t.Shape().Equal(p.SubB.Shape()) && t.Stride().Equal(p.SubB.Stride())
}

// executor returns the per-batch kernel call for p's kind.
func (d *Dispatcher[T]) executor(p Plan, c, a, b tensor.View[T], alpha, beta T, symmetric bool) func(cl call, pool *parallel.Pool) error {
	cd, ad, bd := c.Data(), a.Data(), b.Data()
	k := d.kernel
	view := func(data []T, l layout.Layout, off int) tensor.View[T] {
		return tensor.ViewUnchecked(data, l.WithOffset(off))
	}

	switch p.Kind {
	case VecBatchMat:
		// x·B is Bᵀ·x.
		subBT := p.SubB.ReverseAxes()
		return func(cl call, pool *parallel.Pool) error {
			return k.Gemv(view(cd, p.SubC, cl[0]), view(bd, subBT, cl[2]), view(ad, p.SubA, cl[1]), alpha, beta, pool)
		}
	case BatchMatVec:
		return func(cl call, pool *parallel.Pool) error {
			return k.Gemv(view(cd, p.SubC, cl[0]), view(ad, p.SubA, cl[1]), view(bd, p.SubB, cl[2]), alpha, beta, pool)
		}
	}

	if symmetric {
		klog.V(2).Infof("matmul: b is the transpose of a, using %s syrk", k.Name())
	}
	return func(cl call, pool *parallel.Pool) error {
		cv := view(cd, p.SubC, cl[0])
		av := view(ad, p.SubA, cl[1])
		if symmetric && cl[1] == cl[2] {
			return k.Syrk(cv, av, alpha, pool)
		}
		return k.Gemm(cv, av, view(bd, p.SubB, cl[2]), alpha, beta, pool)
	}
}
