package layout

import "github.com/pkg/errors"

// Shape represents the dimensions of a layout.
type Shape []int

// Stride holds the per-axis element step. Strides may be negative (reversed
// axes) or zero (broadcast axes).
type Stride []int

// NumElements returns the total number of elements described by the shape.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative. Zero-length axes are legal
// and produce an empty layout.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return errors.Wrapf(ErrInvalidLayout, "negative dimension at index %d: %d", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() Stride {
	strides := make(Stride, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * max(s[i+1], 1)
	}
	return strides
}

// ComputeStridesF calculates column-major strides for the shape.
// stride[i] = product of all dimensions before i.
func (s Shape) ComputeStridesF() Stride {
	strides := make(Stride, len(s))
	acc := 1
	for i, dim := range s {
		strides[i] = acc
		acc *= max(dim, 1)
	}
	return strides
}

// Equal checks if two strides are equal.
func (s Stride) Equal(other Stride) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the stride.
func (s Stride) Clone() Stride {
	clone := make(Stride, len(s))
	copy(clone, s)
	return clone
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
