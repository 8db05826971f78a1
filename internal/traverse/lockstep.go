package traverse

import "github.com/born-ml/strided/internal/layout"

// Lockstep advances one OffsetIter per operand in unison. The layouts must
// share one shape, so position i of every iterator names the same logical
// element.
type Lockstep struct {
	iters []*OffsetIter
}

// NewLockstep returns a lockstep walk over positions [start, end) of layouts.
func NewLockstep(layouts []layout.Layout, start, end int) *Lockstep {
	iters := make([]*OffsetIter, len(layouts))
	for i, l := range layouts {
		iters[i] = NewOffsetIterRange(l, start, end)
	}
	return &Lockstep{iters: iters}
}

// Len returns the number of positions left.
func (s *Lockstep) Len() int {
	if len(s.iters) == 0 {
		return 0
	}
	return s.iters[0].Len()
}

// Next stores the offsets of the next position into offs, which must have
// one slot per operand.
func (s *Lockstep) Next(offs []int) bool {
	for i, it := range s.iters {
		off, ok := it.Next()
		if !ok {
			return false
		}
		offs[i] = off
	}
	return len(s.iters) > 0
}

// SplitAt splits every operand's iterator at mid.
func (s *Lockstep) SplitAt(mid int) (*Lockstep, *Lockstep) {
	left := make([]*OffsetIter, len(s.iters))
	right := make([]*OffsetIter, len(s.iters))
	for i, it := range s.iters {
		left[i], right[i] = it.SplitAt(mid)
	}
	return &Lockstep{iters: left}, &Lockstep{iters: right}
}

// SplitEven cuts s into at most parts pieces of near-equal length by
// repeated SplitAt. Empty pieces are dropped.
func SplitEven(s *Lockstep, parts int) []*Lockstep {
	n := s.Len()
	parts = min(max(parts, 1), max(n, 1))
	out := make([]*Lockstep, 0, parts)
	rest := s
	for p := parts; p > 1; p-- {
		var head *Lockstep
		head, rest = rest.SplitAt((rest.Len() + p - 1) / p)
		if head.Len() > 0 {
			out = append(out, head)
		}
	}
	if rest.Len() > 0 || len(out) == 0 {
		out = append(out, rest)
	}
	return out
}
