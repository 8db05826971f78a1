package tensor

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/layout"
)

// View is a strided view of type T over a caller-owned slice.
//
// The view does not own its storage: several views may share one slice, and
// writes through one are visible through the others. Every offset reachable
// through the layout lies inside data.
//
// Example:
//
//	buf := make([]float32, 12)
//	v, _ := tensor.NewView(buf, layout.NewC(layout.Shape{3, 4}, 0))
//	t, _ := v.Transpose(1, 0) // shares buf
type View[T DType] struct {
	data   []T
	layout layout.Layout
}

// NewView binds l to data. It fails with layout.ErrInvalidLayout when an
// offset reachable through l falls outside data.
func NewView[T DType](data []T, l layout.Layout) (View[T], error) {
	if l.Size() > 0 {
		lo, hi := l.BoundsIndex()
		if lo < 0 || hi > len(data) {
			return View[T]{}, errors.Wrapf(layout.ErrInvalidLayout,
				"layout %v spans [%d, %d), buffer has %d elements", l, lo, hi, len(data))
		}
	}
	return View[T]{data: data, layout: l}, nil
}

// ViewUnchecked binds l to data without a bounds check.
func ViewUnchecked[T DType](data []T, l layout.Layout) View[T] {
	return View[T]{data: data, layout: l}
}

// Contiguous wraps data as a dense view of the given shape.
func Contiguous[T DType](data []T, shape layout.Shape, rowMajor bool) (View[T], error) {
	if err := shape.Validate(); err != nil {
		return View[T]{}, err
	}
	if shape.NumElements() != len(data) {
		return View[T]{}, errors.Wrapf(layout.ErrInvalidLayout,
			"shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return View[T]{data: data, layout: layout.NewContig(shape, 0, rowMajor)}, nil
}

// Zeros allocates a dense zero-filled view.
func Zeros[T DType](shape layout.Shape, rowMajor bool) (View[T], error) {
	if err := shape.Validate(); err != nil {
		return View[T]{}, err
	}
	return View[T]{
		data:   make([]T, shape.NumElements()),
		layout: layout.NewContig(shape, 0, rowMajor),
	}, nil
}

// Data returns the whole backing slice, not just the viewed elements.
func (v View[T]) Data() []T {
	return v.data
}

// Layout returns the view's layout.
func (v View[T]) Layout() layout.Layout {
	return v.layout
}

// Shape returns the view's shape.
func (v View[T]) Shape() layout.Shape {
	return v.layout.Shape()
}

// NDim returns the number of axes.
func (v View[T]) NDim() int {
	return v.layout.NDim()
}

// Size returns the number of viewed elements.
func (v View[T]) Size() int {
	return v.layout.Size()
}

// DType returns the runtime data type.
func (v View[T]) DType() DataType {
	return DataTypeOf[T]()
}

// At returns the element at the given index.
func (v View[T]) At(idx ...int) (T, error) {
	off, err := v.layout.Index(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.data[off], nil
}

// Set stores x at the given index.
func (v View[T]) Set(x T, idx ...int) error {
	off, err := v.layout.Index(idx...)
	if err != nil {
		return err
	}
	v.data[off] = x
	return nil
}

// WithLayout rebinds the same buffer to another layout, checking bounds.
func (v View[T]) WithLayout(l layout.Layout) (View[T], error) {
	return NewView(v.data, l)
}

// Transpose permutes the axes.
func (v View[T]) Transpose(perm ...int) (View[T], error) {
	l, err := v.layout.Transpose(perm...)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{data: v.data, layout: l}, nil
}

// Select fixes axis at index, dropping it.
func (v View[T]) Select(axis, index int) (View[T], error) {
	l, err := v.layout.DimSelect(axis, index)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{data: v.data, layout: l}, nil
}

// Narrow restricts axis to the slice s.
func (v View[T]) Narrow(axis int, s layout.Slice) (View[T], error) {
	l, err := v.layout.DimNarrow(axis, s)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{data: v.data, layout: l}, nil
}

// BroadcastTo returns a read-only broadcast of the view to shape.
func (v View[T]) BroadcastTo(shape layout.Shape) (View[T], error) {
	l, err := v.layout.BroadcastTo(shape)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{data: v.data, layout: l}, nil
}

// ToSlice copies the viewed elements out in row-major order.
func (v View[T]) ToSlice() []T {
	out := make([]T, 0, v.Size())
	idx := make([]int, v.NDim())
	shape := v.Shape()
	for range v.Size() {
		out = append(out, v.data[v.layout.IndexUnchecked(idx...)])
		for ax := len(idx) - 1; ax >= 0; ax-- {
			idx[ax]++
			if idx[ax] < shape[ax] {
				break
			}
			idx[ax] = 0
		}
	}
	return out
}

// SameBuffer reports whether a and b are views over the same backing array.
func SameBuffer[T DType](a, b View[T]) bool {
	if len(a.data) == 0 || len(b.data) == 0 {
		return false
	}
	return unsafe.SliceData(a.data) == unsafe.SliceData(b.data)
}

// Overlaps reports whether the positions reachable through a and b share
// any memory. Views over disjoint regions of one buffer do not overlap.
func Overlaps[A, B DType](a View[A], b View[B]) bool {
	a0, a1, ok := span(a)
	if !ok {
		return false
	}
	b0, b1, ok := span(b)
	if !ok {
		return false
	}
	return a0 < b1 && b0 < a1
}

// span returns the address range [lo, hi) covered by the layout's bounds.
func span[T DType](v View[T]) (lo, hi uintptr, ok bool) {
	if v.layout.Size() == 0 || len(v.data) == 0 {
		return 0, 0, false
	}
	first, last := v.layout.BoundsIndex()
	size := unsafe.Sizeof(v.data[0])
	base := uintptr(unsafe.Pointer(unsafe.SliceData(v.data)))
	return base + uintptr(first)*size, base + uintptr(last)*size, true
}

// String returns a short description of the view.
func (v View[T]) String() string {
	return fmt.Sprintf("View[%s]%v", v.DType(), v.layout)
}
