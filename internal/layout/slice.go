package layout

import "github.com/pkg/errors"

// Slice selects a strided range along one axis, with the same meaning as a
// Python slice start:stop:step. Unset bounds default to the whole axis in
// the direction of the step.
type Slice struct {
	start, stop       int
	hasStart, hasStop bool
	step              int
}

// All selects every element of an axis.
func All() Slice {
	return Slice{step: 1}
}

// Range selects [start, stop).
func Range(start, stop int) Slice {
	return Slice{start: start, stop: stop, hasStart: true, hasStop: true, step: 1}
}

// From selects [start, end of axis).
func From(start int) Slice {
	return Slice{start: start, hasStart: true, step: 1}
}

// To selects [0, stop).
func To(stop int) Slice {
	return Slice{stop: stop, hasStop: true, step: 1}
}

// WithStep returns the slice with a different step. A negative step walks
// the axis backwards.
func (s Slice) WithStep(step int) Slice {
	s.step = step
	return s
}

// Step returns the slice step.
func (s Slice) Step() int {
	return s.step
}

// resolve clamps the slice against an axis of length n and returns the first
// selected index and the number of selected elements.
func (s Slice) resolve(n int) (start, length int, err error) {
	if s.step == 0 {
		return 0, 0, errors.Wrap(ErrValueOutOfRange, "slice step cannot be zero")
	}
	wrap := func(v int) int {
		if v < 0 {
			return v + n
		}
		return v
	}

	if s.step > 0 {
		start, stop := 0, n
		if s.hasStart {
			start = clamp(wrap(s.start), 0, n)
		}
		if s.hasStop {
			stop = clamp(wrap(s.stop), 0, n)
		}
		if stop <= start {
			return start, 0, nil
		}
		return start, (stop - start + s.step - 1) / s.step, nil
	}

	start, stop := n-1, -1
	if s.hasStart {
		start = clamp(wrap(s.start), -1, n-1)
	}
	if s.hasStop {
		stop = clamp(wrap(s.stop), -1, n-1)
	}
	if start <= stop {
		return start, 0, nil
	}
	return start, (start - stop - s.step - 1) / -s.step, nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
