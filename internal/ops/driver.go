// Package ops runs elementwise work over strided views.
//
// Every operation follows the same pipeline: sources are broadcast to the
// destination shape, all operands are translated into one joint traversal
// order led by the destination, the fastest axes are collapsed into
// contiguous blocks, and the outer positions are either walked inline or
// split across the policy's pool.
package ops

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/traverse"
)

// plan is a prepared elementwise walk. Operand 0 is the destination.
type plan struct {
	chunk traverse.Chunked
	outer int // number of blocks
}

// elements returns the total number of visited elements.
func (pl plan) elements() int {
	return pl.outer * pl.chunk.Block
}

// prepare broadcasts srcs to dst's shape, translates the joint order and
// chunks the result.
func prepare(op string, dst layout.Layout, srcs ...layout.Layout) (plan, error) {
	if dst.HasBroadcastAxes() {
		return plan{}, errors.Wrapf(layout.ErrInvalidLayout,
			"%s: destination %v has broadcast axes", op, dst)
	}
	ls := make([]layout.Layout, 0, len(srcs)+1)
	ls = append(ls, dst)
	for i, s := range srcs {
		b, err := s.BroadcastTo(dst.Shape())
		if err != nil {
			return plan{}, errors.Wrapf(err, "%s: operand %d", op, i)
		}
		ls = append(ls, b)
	}
	tr, err := traverse.TranslateLayouts(traverse.BufferOrder, ls, 0, traverse.RowMajor)
	if err != nil {
		return plan{}, errors.Wrap(err, op)
	}
	ch := traverse.Chunk(tr, traverse.MinContiguousBlock)
	pl := plan{chunk: ch, outer: ch.Outer[0].Size()}
	if klog.V(3).Enabled() {
		klog.Infof("ops: %s over %v, %d blocks of %d, steps %v", op, dst.Shape(), pl.outer, ch.Block, ch.Steps)
	}
	return pl, nil
}

// run calls body once per block. With serial set, or when the policy
// declines, the walk stays on the calling goroutine; otherwise the outer
// positions are split into one piece per thread.
func (pl plan) run(p *parallel.Policy, serial bool, body func(offs []int)) {
	if pl.outer == 0 {
		return
	}
	walk := func(s *traverse.Lockstep) {
		offs := make([]int, len(pl.chunk.Outer))
		for s.Next(offs) {
			body(offs)
		}
	}
	all := traverse.NewLockstep(pl.chunk.Outer, 0, pl.outer)
	if serial || !p.ShouldParallelize(pl.elements()) {
		walk(all)
		return
	}
	parts := traverse.SplitEven(all, p.Threads())
	klog.V(2).Infof("ops: %d elements across %d parts", pl.elements(), len(parts))
	p.Each(len(parts), func(i int) { walk(parts[i]) })
}
