package layout

import "github.com/pkg/errors"

// BroadcastKind classifies how one operand axis maps onto a broadcast axis.
type BroadcastKind int

const (
	// Preserve keeps the axis and its stride.
	Preserve BroadcastKind = iota
	// Upcast stretches a length-1 axis; its stride becomes 0.
	Upcast
	// Expand adds an axis the operand does not have; its stride is 0.
	Expand
)

// String returns a human-readable kind name.
func (k BroadcastKind) String() string {
	switch k {
	case Preserve:
		return "Preserve"
	case Upcast:
		return "Upcast"
	case Expand:
		return "Expand"
	default:
		return "Unknown"
	}
}

// BroadcastShape implements NumPy-style broadcasting rules.
//
// Shapes are aligned from the trailing axis. Equal dimensions are preserved on
// both sides, a dimension of 1 is upcast to the other side's length, and a
// missing leading axis is expanded. Any other pair fails with
// ErrBroadcastMismatch.
//
// Returns the broadcast shape and the per-axis classification of a and b.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5)  [Preserve Upcast]    [Preserve Preserve]
//	(5,)   + (3, 5) → (3, 5)  [Expand Preserve]    [Preserve Preserve]
//	(3, 4) + (3, 5) → error
func BroadcastShape(a, b Shape) (Shape, []BroadcastKind, []BroadcastKind, error) {
	n := max(len(a), len(b))
	result := make(Shape, n)
	ka := make([]BroadcastKind, n)
	kb := make([]BroadcastKind, n)

	for i := 0; i < n; i++ {
		ai := len(a) - n + i
		bi := len(b) - n + i

		switch {
		case ai < 0:
			result[i], ka[i], kb[i] = b[bi], Expand, Preserve
		case bi < 0:
			result[i], ka[i], kb[i] = a[ai], Preserve, Expand
		case a[ai] == b[bi]:
			result[i], ka[i], kb[i] = a[ai], Preserve, Preserve
		case a[ai] == 1:
			result[i], ka[i], kb[i] = b[bi], Upcast, Preserve
		case b[bi] == 1:
			result[i], ka[i], kb[i] = a[ai], Preserve, Upcast
		default:
			return nil, nil, nil, errors.Wrapf(ErrBroadcastMismatch,
				"%v vs %v (dimension %d: %d vs %d)", a, b, i, a[ai], b[bi])
		}
	}

	return result, ka, kb, nil
}

// BroadcastLayout broadcasts two layouts against each other. Upcast and
// expanded axes get stride 0; offsets are unchanged.
func BroadcastLayout(a, b Layout) (Layout, Layout, error) {
	shape, ka, kb, err := BroadcastShape(a.shape, b.shape)
	if err != nil {
		return Layout{}, Layout{}, err
	}
	return applyBroadcast(a, shape, ka), applyBroadcast(b, shape, kb), nil
}

// BroadcastLayoutToFirst broadcasts other onto target's shape. Unlike
// BroadcastLayout it is one-directional: it fails if target itself would
// have to grow, which is what in-place accumulation targets need.
func BroadcastLayoutToFirst(target, other Layout) (Layout, error) {
	return other.BroadcastTo(target.shape)
}

// BroadcastTo broadcasts the layout onto shape.
func (l Layout) BroadcastTo(shape Shape) (Layout, error) {
	result, kt, kl, err := BroadcastShape(shape, l.shape)
	if err != nil {
		return Layout{}, err
	}
	for i, k := range kt {
		if k != Preserve {
			return Layout{}, errors.Wrapf(ErrBroadcastMismatch,
				"cannot broadcast %v onto %v: axis %d of the target would grow", l.shape, shape, i)
		}
	}
	return applyBroadcast(l, result, kl), nil
}

// BroadcastLayouts broadcasts any number of layouts to their common shape.
func BroadcastLayouts(layouts ...Layout) ([]Layout, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	shape := layouts[0].shape
	for _, l := range layouts[1:] {
		s, _, _, err := BroadcastShape(shape, l.shape)
		if err != nil {
			return nil, err
		}
		shape = s
	}
	out := make([]Layout, len(layouts))
	for i, l := range layouts {
		b, err := l.BroadcastTo(shape)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func applyBroadcast(l Layout, shape Shape, kinds []BroadcastKind) Layout {
	n := len(shape)
	stride := make(Stride, n)
	for i, k := range kinds {
		if k == Preserve {
			stride[i] = l.stride[len(l.shape)-n+i]
		}
	}
	return build(shape.Clone(), stride, l.offset)
}
