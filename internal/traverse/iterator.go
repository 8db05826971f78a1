package traverse

import (
	"iter"

	"github.com/born-ml/strided/internal/layout"
)

// OffsetIter walks a layout first-axis-fastest and yields linear offsets.
//
// It keeps an independent cursor at each end: Next consumes from the front
// and NextBack from the back, and the two never cross. Each step is O(1)
// amortized (a carry propagates past an axis only once per wrap of that axis).
type OffsetIter struct {
	layout layout.Layout
	shape  layout.Shape
	stride layout.Stride

	frontIdx []int
	frontOff int
	frontPos int

	backIdx []int
	backOff int
	backPos int // exclusive
}

// NewOffsetIter returns an iterator over every element of l.
func NewOffsetIter(l layout.Layout) *OffsetIter {
	return NewOffsetIterRange(l, 0, l.Size())
}

// NewOffsetIterRange returns an iterator over the elements at first-axis-fastest
// positions [start, end) of l. Bounds are clamped to [0, l.Size()].
func NewOffsetIterRange(l layout.Layout, start, end int) *OffsetIter {
	size := l.Size()
	start = min(max(start, 0), size)
	end = min(max(end, start), size)

	n := l.NDim()
	it := &OffsetIter{
		layout:   l,
		shape:    l.Shape(),
		stride:   l.Stride(),
		frontIdx: make([]int, n),
		backIdx:  make([]int, n),
		frontPos: start,
		backPos:  end,
	}
	if start < end {
		it.frontOff = it.unravel(start, it.frontIdx)
		it.backOff = it.unravel(end-1, it.backIdx)
	}
	return it
}

// unravel writes the multi-index of first-axis-fastest position pos into idx
// and returns its offset.
func (it *OffsetIter) unravel(pos int, idx []int) int {
	off := it.layout.Offset()
	for a, n := range it.shape {
		idx[a] = pos % n
		pos /= n
		off += idx[a] * it.stride[a]
	}
	return off
}

// Len returns the number of offsets not yet consumed.
func (it *OffsetIter) Len() int {
	return it.backPos - it.frontPos
}

// Next returns the next offset from the front.
func (it *OffsetIter) Next() (int, bool) {
	if it.frontPos >= it.backPos {
		return 0, false
	}
	off := it.frontOff
	it.frontPos++
	if it.frontPos < it.backPos {
		it.advance()
	}
	return off, true
}

// NextBack returns the next offset from the back.
func (it *OffsetIter) NextBack() (int, bool) {
	if it.frontPos >= it.backPos {
		return 0, false
	}
	off := it.backOff
	it.backPos--
	if it.frontPos < it.backPos {
		it.retreat()
	}
	return off, true
}

func (it *OffsetIter) advance() {
	for a, n := range it.shape {
		it.frontIdx[a]++
		it.frontOff += it.stride[a]
		if it.frontIdx[a] < n {
			return
		}
		it.frontOff -= it.stride[a] * n
		it.frontIdx[a] = 0
	}
}

func (it *OffsetIter) retreat() {
	for a, n := range it.shape {
		if it.backIdx[a] > 0 {
			it.backIdx[a]--
			it.backOff -= it.stride[a]
			return
		}
		it.backIdx[a] = n - 1
		it.backOff += it.stride[a] * (n - 1)
	}
}

// SplitAt partitions the remaining work into the first mid offsets and the
// rest. Both halves get freshly computed cursors and can be consumed
// independently, e.g. on different goroutines. mid is clamped to [0, Len()].
func (it *OffsetIter) SplitAt(mid int) (*OffsetIter, *OffsetIter) {
	mid = min(max(mid, 0), it.Len())
	cut := it.frontPos + mid
	return NewOffsetIterRange(it.layout, it.frontPos, cut),
		NewOffsetIterRange(it.layout, cut, it.backPos)
}

// Offsets returns a range-over-func sequence of the offsets of l in the
// given order (RowMajor or ColMajor; other orders may visit elements in a
// layout-dependent order).
func Offsets(l layout.Layout, order Order) iter.Seq[int] {
	t := Translate(l, order)
	return func(yield func(int) bool) {
		it := NewOffsetIter(t)
		for {
			off, ok := it.Next()
			if !ok || !yield(off) {
				return
			}
		}
	}
}
