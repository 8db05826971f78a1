// Package layout maps logical multi-indices of a strided array onto linear
// offsets of a flat buffer.
//
// A Layout is an immutable value: every transformation (transpose, slice,
// broadcast, reshape) returns a new Layout with its own shape and stride
// slices, so a Layout can be shared freely between goroutines.
package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Layout describes how a multi-dimensional array is laid out in a flat buffer.
//
// The element at multi-index idx lives at offset + Σ stride[i]*idx[i].
type Layout struct {
	shape  Shape
	stride Stride
	offset int
	size   int
}

// New creates a validated Layout.
//
// It fails with ErrInvalidLayout when shape and stride differ in rank, when a
// dimension or the offset is negative, when an addressable element would sit
// at a negative position, or when two distinct multi-indices would alias the
// same position (zero-stride broadcast axes excepted).
func New(shape Shape, stride Stride, offset int) (Layout, error) {
	if len(shape) != len(stride) {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "shape %v and stride %v differ in rank", shape, stride)
	}
	if err := shape.Validate(); err != nil {
		return Layout{}, err
	}
	if offset < 0 {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "negative offset %d", offset)
	}

	l := NewUnchecked(shape, stride, offset)
	if l.size == 0 {
		return l, nil
	}
	if lo, _ := l.BoundsIndex(); lo < 0 {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "layout %v addresses negative position %d", l, lo)
	}
	if err := checkOverlap(l.shape, l.stride); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// NewUnchecked creates a Layout without validation.
//
// The caller guarantees the invariants New checks. The shape and stride
// slices are copied.
func NewUnchecked(shape Shape, stride Stride, offset int) Layout {
	return build(shape.Clone(), stride.Clone(), offset)
}

// NewC creates a row-major (C) contiguous layout.
func NewC(shape Shape, offset int) Layout {
	return build(shape.Clone(), shape.ComputeStrides(), offset)
}

// NewF creates a column-major (Fortran) contiguous layout.
func NewF(shape Shape, offset int) Layout {
	return build(shape.Clone(), shape.ComputeStridesF(), offset)
}

// NewContig creates a contiguous layout in row-major order when rowMajor is
// set, column-major otherwise.
func NewContig(shape Shape, offset int, rowMajor bool) Layout {
	if rowMajor {
		return NewC(shape, offset)
	}
	return NewF(shape, offset)
}

// build takes ownership of shape and stride.
func build(shape Shape, stride Stride, offset int) Layout {
	return Layout{
		shape:  shape,
		stride: stride,
		offset: offset,
		size:   shape.NumElements(),
	}
}

// checkOverlap verifies that, sorted by |stride|, each axis's span fits below
// the next larger stride. Axes of length <= 1 and zero-stride axes are skipped.
func checkOverlap(shape Shape, stride Stride) error {
	type axis struct{ n, s int }
	axes := make([]axis, 0, len(shape))
	for i, n := range shape {
		if n > 1 && stride[i] != 0 {
			axes = append(axes, axis{n, abs(stride[i])})
		}
	}
	sort.Slice(axes, func(i, j int) bool { return axes[i].s < axes[j].s })
	for i := 0; i+1 < len(axes); i++ {
		if axes[i].n*axes[i].s > axes[i+1].s {
			return errors.Wrapf(ErrInvalidLayout, "shape %v with stride %v aliases memory", shape, stride)
		}
	}
	return nil
}

// Shape returns the layout's shape. The returned slice must not be modified.
func (l Layout) Shape() Shape {
	return l.shape
}

// Stride returns the layout's strides. The returned slice must not be modified.
func (l Layout) Stride() Stride {
	return l.stride
}

// Offset returns the linear position of the element at index 0.
func (l Layout) Offset() int {
	return l.offset
}

// NDim returns the number of axes.
func (l Layout) NDim() int {
	return len(l.shape)
}

// Size returns the number of addressable elements.
func (l Layout) Size() int {
	return l.size
}

// WithOffset returns a copy of the layout retargeted at a new offset.
func (l Layout) WithOffset(offset int) Layout {
	return build(l.shape.Clone(), l.stride.Clone(), offset)
}

// IsCContig reports whether the layout is row-major contiguous.
// Axes of length 1 are ignored; empty layouts are contiguous.
func (l Layout) IsCContig() bool {
	if l.size == 0 {
		return true
	}
	acc := 1
	for i := len(l.shape) - 1; i >= 0; i-- {
		if l.shape[i] == 1 {
			continue
		}
		if l.stride[i] != acc {
			return false
		}
		acc *= l.shape[i]
	}
	return true
}

// IsFContig reports whether the layout is column-major contiguous.
// Axes of length 1 are ignored; empty layouts are contiguous.
func (l Layout) IsFContig() bool {
	if l.size == 0 {
		return true
	}
	acc := 1
	for i, n := range l.shape {
		if n == 1 {
			continue
		}
		if l.stride[i] != acc {
			return false
		}
		acc *= n
	}
	return true
}

// IsCPrefer reports whether the strides of the non-unit axes strictly
// decrease and the last of them is 1. Every c-contiguous layout is c-prefer,
// but gaps between rows are allowed.
func (l Layout) IsCPrefer() bool {
	if l.size == 0 || l.IsCContig() {
		return true
	}
	last := math.MaxInt
	for i, n := range l.shape {
		if n == 1 {
			continue
		}
		if l.stride[i] >= last {
			return false
		}
		last = l.stride[i]
	}
	return last == 1
}

// IsFPrefer is the column-major counterpart of IsCPrefer.
func (l Layout) IsFPrefer() bool {
	if l.size == 0 || l.IsFContig() {
		return true
	}
	last := math.MaxInt
	for i := len(l.shape) - 1; i >= 0; i-- {
		if l.shape[i] == 1 {
			continue
		}
		if l.stride[i] >= last {
			return false
		}
		last = l.stride[i]
	}
	return last == 1
}

// HasBroadcastAxes reports whether some axis of length > 1 has stride 0,
// meaning several multi-indices share one position.
func (l Layout) HasBroadcastAxes() bool {
	for i, n := range l.shape {
		if n > 1 && l.stride[i] == 0 {
			return true
		}
	}
	return false
}

// Index returns the linear position of the element at idx.
// Negative indices count from the end of their axis.
func (l Layout) Index(idx ...int) (int, error) {
	if len(idx) != len(l.shape) {
		return 0, errors.Wrapf(ErrInvalidLayout, "got %d indices for %dD layout", len(idx), len(l.shape))
	}
	pos := l.offset
	for i, v := range idx {
		n := l.shape[i]
		if v < 0 {
			v += n
		}
		if v < 0 || v >= n {
			return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d for axis %d of size %d", idx[i], i, n)
		}
		pos += v * l.stride[i]
	}
	return pos, nil
}

// IndexUnchecked returns the linear position of the element at idx.
//
// idx must hold exactly NDim non-negative in-range indices; nothing is checked.
func (l Layout) IndexUnchecked(idx ...int) int {
	pos := l.offset
	for i, v := range idx {
		pos += v * l.stride[i]
	}
	return pos
}

// BoundsIndex returns the half-open range [lo, hi) of positions the layout
// can address. For an empty layout lo == hi == Offset.
//
// A buffer backing the layout must hold at least hi elements.
func (l Layout) BoundsIndex() (lo, hi int) {
	if l.size == 0 {
		return l.offset, l.offset
	}
	lo, hi = l.offset, l.offset
	for i, n := range l.shape {
		span := l.stride[i] * (n - 1)
		if span < 0 {
			lo += span
		} else {
			hi += span
		}
	}
	return lo, hi + 1
}

// Equal reports whether two layouts address the same positions in the same
// logical order.
func (l Layout) Equal(other Layout) bool {
	return l.offset == other.offset && l.shape.Equal(other.shape) && l.stride.Equal(other.stride)
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("Layout{shape: %v, stride: %v, offset: %d}", []int(l.shape), []int(l.stride), l.offset)
}
