package matmul

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/traverse"
)

// Plan is the resolved geometry of one matmul call.
//
// Each operand is split into a batch prefix and a matrix (or vector)
// suffix. The batch prefixes are broadcast to BatchShape, so one walk over
// BatchA, BatchB and BatchC yields the base offset of every kernel call; the
// Sub layouts, retargeted to that offset, are the kernel operands.
type Plan struct {
	Kind       Kind
	M, K, N    int
	BatchShape layout.Shape

	BatchA, BatchB, BatchC layout.Layout
	SubA, SubB, SubC       layout.Layout

	// Output is the layout C must have; NewPlan fills it with a fresh
	// contiguous layout at offset 0.
	Output layout.Layout
}

// NewPlan classifies a and b, checks the contraction, broadcasts the batch
// prefixes and lays out a fresh output.
//
// An explicit RowMajor or ColMajor order is used as given. Otherwise the
// output follows the higher-rank operand's preferred order; for equal ranks
// both operands must agree, and fallback decides when they do not.
func NewPlan(a, b layout.Layout, order, fallback traverse.Order) (Plan, error) {
	kind, err := Classify(a.NDim(), b.NDim())
	if err != nil {
		return Plan{}, err
	}
	ra, rb := kind.matrixRanks()

	headA, subA, err := a.DimSplitAt(a.NDim() - ra)
	if err != nil {
		return Plan{}, err
	}
	headB, subB, err := b.DimSplitAt(b.NDim() - rb)
	if err != nil {
		return Plan{}, err
	}

	sa, sb := subA.Shape(), subB.Shape()
	p := Plan{Kind: kind, M: 1, N: 1, SubA: subA, SubB: subB}
	kb := sb[0]
	if ra == 2 {
		p.M, p.K = sa[0], sa[1]
	} else {
		p.K = sa[0]
	}
	if rb == 2 {
		p.N = sb[1]
	}
	if p.K != kb {
		return Plan{}, errors.Wrapf(layout.ErrInvalidLayout,
			"matmul %v by %v: contraction %d vs %d", a.Shape(), b.Shape(), p.K, kb)
	}

	batch, _, _, err := layout.BroadcastShape(headA.Shape(), headB.Shape())
	if err != nil {
		return Plan{}, errors.Wrapf(err, "matmul %v by %v: batch", a.Shape(), b.Shape())
	}
	p.BatchShape = batch
	if p.BatchA, err = headA.BroadcastTo(batch); err != nil {
		return Plan{}, err
	}
	if p.BatchB, err = headB.BroadcastTo(batch); err != nil {
		return Plan{}, err
	}

	shape := append(batch.Clone(), outputSuffix(ra, rb, p.M, p.N)...)
	rowMajor := outputOrder(a, b, order, fallback) != traverse.ColMajor
	if err := p.bindOutput(layout.NewContig(shape, 0, rowMajor)); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// WithOutput returns a copy of p whose output is c. The shape of c must be
// the planned output shape and c must not repeat elements.
func (p Plan) WithOutput(c layout.Layout) (Plan, error) {
	if !c.Shape().Equal(p.Output.Shape()) {
		return Plan{}, errors.Wrapf(layout.ErrInvalidLayout,
			"matmul output has shape %v, expected %v", c.Shape(), p.Output.Shape())
	}
	if c.HasBroadcastAxes() {
		return Plan{}, errors.Wrapf(layout.ErrInvalidLayout,
			"matmul output %v has broadcast axes", c)
	}
	if err := p.bindOutput(c); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (p *Plan) bindOutput(c layout.Layout) error {
	head, sub, err := c.DimSplitAt(len(p.BatchShape))
	if err != nil {
		return err
	}
	p.Output, p.BatchC, p.SubC = c, head, sub
	return nil
}

// Batches returns the number of kernel calls.
func (p Plan) Batches() int {
	return p.BatchShape.NumElements()
}

// Work returns the multiply-add count of one kernel call.
func (p Plan) Work() int {
	return p.M * p.N * p.K
}

func outputSuffix(ra, rb, m, n int) layout.Shape {
	switch {
	case ra == 1 && rb == 1:
		return layout.Shape{}
	case ra == 1:
		return layout.Shape{n}
	case rb == 1:
		return layout.Shape{m}
	default:
		return layout.Shape{m, n}
	}
}

func outputOrder(a, b layout.Layout, order, fallback traverse.Order) traverse.Order {
	if order.IsFixed() {
		return order
	}
	if !fallback.IsFixed() {
		fallback = traverse.RowMajor
	}
	switch {
	case a.NDim() > b.NDim():
		return preferred(a, fallback)
	case b.NDim() > a.NDim():
		return preferred(b, fallback)
	}
	pa, pb := preferred(a, fallback), preferred(b, fallback)
	if pa == pb {
		return pa
	}
	return fallback
}

func preferred(l layout.Layout, fallback traverse.Order) traverse.Order {
	switch {
	case l.IsCPrefer():
		return traverse.RowMajor
	case l.IsFPrefer():
		return traverse.ColMajor
	default:
		return fallback
	}
}
