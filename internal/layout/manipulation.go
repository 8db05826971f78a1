package layout

import (
	"slices"

	"github.com/pkg/errors"
)

// Transpose permutes the axes: axis i of the result is axis perm[i] of l.
// Negative entries count from the end.
func (l Layout) Transpose(perm ...int) (Layout, error) {
	n := len(l.shape)
	if len(perm) != n {
		return Layout{}, errors.Wrapf(ErrInvalidLayout, "permutation %v for %dD layout", perm, n)
	}
	seen := make([]bool, n)
	shape := make(Shape, n)
	stride := make(Stride, n)
	for i, p := range perm {
		a, err := normAxis(p, n)
		if err != nil {
			return Layout{}, err
		}
		if seen[a] {
			return Layout{}, errors.Wrapf(ErrInvalidLayout, "axis %d repeated in permutation %v", a, perm)
		}
		seen[a] = true
		shape[i] = l.shape[a]
		stride[i] = l.stride[a]
	}
	return build(shape, stride, l.offset), nil
}

// TransposeUnchecked permutes the axes without validating perm.
func (l Layout) TransposeUnchecked(perm []int) Layout {
	shape := make(Shape, len(perm))
	stride := make(Stride, len(perm))
	for i, a := range perm {
		shape[i] = l.shape[a]
		stride[i] = l.stride[a]
	}
	return build(shape, stride, l.offset)
}

// ReverseAxes reverses the axis order (the full transpose).
func (l Layout) ReverseAxes() Layout {
	shape := l.shape.Clone()
	stride := l.stride.Clone()
	slices.Reverse(shape)
	slices.Reverse(stride)
	return build(shape, stride, l.offset)
}

// SwapAxes exchanges two axes.
func (l Layout) SwapAxes(a, b int) (Layout, error) {
	n := len(l.shape)
	a, err := normAxis(a, n)
	if err != nil {
		return Layout{}, err
	}
	b, err = normAxis(b, n)
	if err != nil {
		return Layout{}, err
	}
	shape := l.shape.Clone()
	stride := l.stride.Clone()
	shape[a], shape[b] = shape[b], shape[a]
	stride[a], stride[b] = stride[b], stride[a]
	return build(shape, stride, l.offset), nil
}

// DimInsert inserts a length-1 axis before position axis (unsqueeze).
// axis may range over [-(n+1), n]. The new stride keeps an f-prefer layout
// f-prefer and anything else c-prefer.
func (l Layout) DimInsert(axis int) (Layout, error) {
	n := len(l.shape)
	a := axis
	if a < 0 {
		a += n + 1
	}
	if a < 0 || a > n {
		return Layout{}, errors.Wrapf(ErrIndexOutOfRange, "insert axis %d out of range for %dD layout", axis, n)
	}

	s := 1
	if l.IsFPrefer() && !l.IsCPrefer() {
		if a > 0 {
			s = l.stride[a-1] * l.shape[a-1]
		}
	} else if a < n {
		s = l.stride[a] * l.shape[a]
	}
	if s == 0 {
		s = 1
	}

	shape := slices.Insert(l.shape.Clone(), a, 1)
	stride := slices.Insert(l.stride.Clone(), a, s)
	return build(shape, stride, l.offset), nil
}

// DimSelect fixes axis at index and drops it, folding its contribution into
// the offset. Negative axis and index count from the end.
func (l Layout) DimSelect(axis, index int) (Layout, error) {
	n := len(l.shape)
	a, err := normAxis(axis, n)
	if err != nil {
		return Layout{}, err
	}
	i := index
	if i < 0 {
		i += l.shape[a]
	}
	if i < 0 || i >= l.shape[a] {
		return Layout{}, errors.Wrapf(ErrIndexOutOfRange, "index %d for axis %d of size %d", index, a, l.shape[a])
	}
	offset := l.offset + i*l.stride[a]
	shape := slices.Delete(l.shape.Clone(), a, a+1)
	stride := slices.Delete(l.stride.Clone(), a, a+1)
	return build(shape, stride, offset), nil
}

// DimNarrow restricts axis to the elements selected by s. Out-of-range
// bounds clamp to a truncated or empty range; only a zero step fails.
func (l Layout) DimNarrow(axis int, s Slice) (Layout, error) {
	a, err := normAxis(axis, len(l.shape))
	if err != nil {
		return Layout{}, err
	}
	start, length, err := s.resolve(l.shape[a])
	if err != nil {
		return Layout{}, err
	}

	offset := l.offset
	if length > 0 {
		offset += start * l.stride[a]
	}
	shape := l.shape.Clone()
	stride := l.stride.Clone()
	shape[a] = length
	stride[a] *= s.step
	return build(shape, stride, offset), nil
}

// DimSplitAt splits the axes into [0, axis) and [axis, n). Both halves keep
// the original offset, so a position in l is the sum of the two halves'
// contributions over that offset. axis may range over [-n, n].
func (l Layout) DimSplitAt(axis int) (Layout, Layout, error) {
	n := len(l.shape)
	a := axis
	if a < 0 {
		a += n
	}
	if a < 0 || a > n {
		return Layout{}, Layout{}, errors.Wrapf(ErrIndexOutOfRange, "split axis %d out of range for %dD layout", axis, n)
	}
	head := build(l.shape[:a].Clone(), l.stride[:a].Clone(), l.offset)
	tail := build(l.shape[a:].Clone(), l.stride[a:].Clone(), l.offset)
	return head, tail, nil
}

// DimEliminate drops a length-1 axis.
func (l Layout) DimEliminate(axis int) (Layout, error) {
	a, err := normAxis(axis, len(l.shape))
	if err != nil {
		return Layout{}, err
	}
	if l.shape[a] != 1 {
		return Layout{}, errors.Wrapf(ErrValueOutOfRange, "cannot eliminate axis %d of size %d", a, l.shape[a])
	}
	return l.DimSelect(a, 0)
}

// Reshape reinterprets the layout with a new shape without moving data.
// One dimension may be -1 and is inferred. Elements are taken in row-major
// order when rowMajor is set, column-major otherwise.
//
// ok is false when the strides cannot express the new shape; the caller must
// then copy into a contiguous buffer first.
func (l Layout) Reshape(shape Shape, rowMajor bool) (result Layout, ok bool, err error) {
	target, err := inferShape(shape, l.size)
	if err != nil {
		return Layout{}, false, err
	}
	if l.size == 0 {
		return NewContig(target, l.offset, rowMajor), true, nil
	}

	oldShape := make(Shape, 0, len(l.shape))
	oldStride := make(Stride, 0, len(l.stride))
	for i, n := range l.shape {
		if n != 1 {
			oldShape = append(oldShape, n)
			oldStride = append(oldStride, l.stride[i])
		}
	}

	if !rowMajor {
		slices.Reverse(oldShape)
		slices.Reverse(oldStride)
		target = target.Clone()
		slices.Reverse(target)
	}
	stride, ok := nocopyStrides(oldShape, oldStride, target)
	if !ok {
		return Layout{}, false, nil
	}
	if !rowMajor {
		slices.Reverse(target)
		slices.Reverse(stride)
	}
	return build(target, stride, l.offset), true, nil
}

// inferShape resolves a single -1 entry and checks the element count.
func inferShape(shape Shape, size int) (Shape, error) {
	out := shape.Clone()
	infer := -1
	known := 1
	for i, n := range out {
		switch {
		case n == -1:
			if infer >= 0 {
				return nil, errors.Wrapf(ErrValueOutOfRange, "shape %v has more than one -1", shape)
			}
			infer = i
		case n < 0:
			return nil, errors.Wrapf(ErrValueOutOfRange, "negative dimension %d in shape %v", n, shape)
		default:
			known *= n
		}
	}
	if infer >= 0 {
		if known == 0 || size%known != 0 {
			return nil, errors.Wrapf(ErrValueOutOfRange, "cannot infer shape %v for %d elements", shape, size)
		}
		out[infer] = size / known
	}
	if out.NumElements() != size {
		return nil, errors.Wrapf(ErrValueOutOfRange, "shape %v does not hold %d elements", shape, size)
	}
	return out, nil
}

// nocopyStrides computes row-major strides for target over the non-unit
// axes oldShape/oldStride, matching groups of axes with equal products.
func nocopyStrides(oldShape Shape, oldStride Stride, target Shape) (Stride, bool) {
	np, op := len(target), len(oldShape)
	stride := make(Stride, np)

	ni, nj, oi, oj := 0, 1, 0, 1
	for ni < np && oi < op {
		npc, opc := target[ni], oldShape[oi]
		for npc != opc {
			if npc < opc {
				npc *= target[nj]
				nj++
			} else {
				opc *= oldShape[oj]
				oj++
			}
		}
		for k := oi; k < oj-1; k++ {
			if oldStride[k] != oldShape[k+1]*oldStride[k+1] {
				return nil, false
			}
		}
		stride[nj-1] = oldStride[oj-1]
		for k := nj - 1; k > ni; k-- {
			stride[k-1] = stride[k] * target[k]
		}
		ni, nj = nj, nj+1
		oi, oj = oj, oj+1
	}

	last := 1
	if ni > 0 {
		last = stride[ni-1]
	}
	for k := ni; k < np; k++ {
		stride[k] = last
	}
	return stride, true
}
