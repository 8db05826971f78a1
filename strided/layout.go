// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package strided

import (
	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/matmul"
	"github.com/born-ml/strided/internal/tensor"
	"github.com/born-ml/strided/internal/traverse"
)

// Type aliases for public API

// Layout maps multi-indices to positions in a flat buffer.
type Layout = layout.Layout

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} represents a 3D array with dimensions 2×3×4.
type Shape = layout.Shape

// Stride holds the per-axis element step of a Layout.
type Stride = layout.Stride

// Slice is a Python-style start:stop:step range used by Narrow.
type Slice = layout.Slice

// BroadcastKind classifies how an axis takes part in a broadcast.
type BroadcastKind = layout.BroadcastKind

// Broadcast kinds.
const (
	Preserve BroadcastKind = layout.Preserve
	Upcast   BroadcastKind = layout.Upcast
	Expand   BroadcastKind = layout.Expand
)

// Order selects a traversal order.
type Order = traverse.Order

// Traversal orders.
const (
	RowMajor    Order = traverse.RowMajor
	ColMajor    Order = traverse.ColMajor
	Auto        Order = traverse.Auto
	KeepSource  Order = traverse.KeepSource
	Greedy      Order = traverse.Greedy
	BufferOrder Order = traverse.BufferOrder
)

// DType is a constraint for array element types.
type DType = tensor.DType

// Float is the constraint for element types accepted by MatMul and Sum.
type Float = tensor.Float

// View is a strided view over a caller-owned slice.
type View[T DType] = tensor.View[T]

// MatMulKind is the multiplication shape chosen from the operand ranks.
type MatMulKind = matmul.Kind

// Matmul kinds.
const (
	InnerProduct MatMulKind = matmul.InnerProduct
	MatMat       MatMulKind = matmul.MatMat
	VecBatchMat  MatMulKind = matmul.VecBatchMat
	BatchMatVec  MatMulKind = matmul.BatchMatVec
	MatBatch     MatMulKind = matmul.MatBatch
	BatchMat     MatMulKind = matmul.BatchMat
	BatchBatch   MatMulKind = matmul.BatchBatch
)

// MatMulPlan is the resolved geometry of a matrix product.
type MatMulPlan = matmul.Plan

// Errors. Every error returned by this package wraps one of these; match
// with errors.Is.
var (
	ErrInvalidLayout     = layout.ErrInvalidLayout
	ErrIndexOutOfRange   = layout.ErrIndexOutOfRange
	ErrValueOutOfRange   = layout.ErrValueOutOfRange
	ErrBroadcastMismatch = layout.ErrBroadcastMismatch
	ErrUnimplementedRank = matmul.ErrUnimplementedRank
	ErrUnknownOrder      = traverse.ErrUnknownOrder
)

// NewLayout validates and returns a layout.
func NewLayout(shape Shape, stride Stride, offset int) (Layout, error) {
	return layout.New(shape, stride, offset)
}

// NewLayoutUnchecked returns a layout without validation. The caller
// guarantees the layout invariants.
func NewLayoutUnchecked(shape Shape, stride Stride, offset int) Layout {
	return layout.NewUnchecked(shape, stride, offset)
}

// NewContigLayout returns a dense row-major (rowMajor) or column-major
// layout.
func NewContigLayout(shape Shape, offset int, rowMajor bool) Layout {
	return layout.NewContig(shape, offset, rowMajor)
}

// All selects a whole axis.
func All() Slice { return layout.All() }

// Range selects [start, stop).
func Range(start, stop int) Slice { return layout.Range(start, stop) }

// From selects [start, end).
func From(start int) Slice { return layout.From(start) }

// To selects [0, stop).
func To(stop int) Slice { return layout.To(stop) }

// BroadcastShapes returns the NumPy broadcast of a and b.
func BroadcastShapes(a, b Shape) (Shape, error) {
	s, _, _, err := layout.BroadcastShape(a, b)
	return s, err
}

// ParseOrder parses an order name ("c", "f", "a", "k", "g", "b" or the
// long names).
func ParseOrder(s string) (Order, error) {
	return traverse.ParseOrder(s)
}

// ClassifyMatMul returns the kind selected for operands of the given ranks.
func ClassifyMatMul(rankA, rankB int) (MatMulKind, error) {
	return matmul.Classify(rankA, rankB)
}

// NewView binds a layout to data, checking that every reachable position
// lies inside data.
func NewView[T DType](data []T, l Layout) (View[T], error) {
	return tensor.NewView(data, l)
}

// Contiguous wraps data as a dense view of the given shape.
func Contiguous[T DType](data []T, shape Shape, rowMajor bool) (View[T], error) {
	return tensor.Contiguous(data, shape, rowMajor)
}

// Zeros allocates a dense zero-filled view.
func Zeros[T DType](shape Shape, rowMajor bool) (View[T], error) {
	return tensor.Zeros[T](shape, rowMajor)
}

// Offsets returns the buffer positions of l in the given order.
func Offsets(l Layout, order Order) []int {
	out := make([]int, 0, l.Size())
	for off := range traverse.Offsets(l, order) {
		out = append(out, off)
	}
	return out
}
