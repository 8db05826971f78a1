package traverse

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/layout"
)

// Translate rewrites a single layout so that a first-axis-fastest walk
// visits its elements in the given order.
func Translate(l layout.Layout, order Order) layout.Layout {
	out, _ := TranslateLayouts(order, []layout.Layout{l}, 0, RowMajor)
	return out[0]
}

// TranslateLayouts rewrites jointly traversed layouts for the given order.
//
// All layouts must share one shape (broadcast them first). The same axis
// permutation and the same axis reversals are applied to every layout, so
// the i-th element of one walk still corresponds to the i-th element of the
// others.
//
// priority names the operand whose memory order wins for KeepSource and
// BufferOrder; pass -1 for none. fallback is used when Auto or KeepSource
// cannot decide, and must be RowMajor or ColMajor (anything else means
// RowMajor).
func TranslateLayouts(order Order, layouts []layout.Layout, priority int, fallback Order) ([]layout.Layout, error) {
	if len(layouts) == 0 {
		return nil, nil
	}
	shape := layouts[0].Shape()
	for i, l := range layouts[1:] {
		if !l.Shape().Equal(shape) {
			return nil, errors.Wrapf(layout.ErrInvalidLayout,
				"operand %d has shape %v, expected %v", i+1, l.Shape(), shape)
		}
	}
	if priority >= len(layouts) {
		return nil, errors.Wrapf(layout.ErrIndexOutOfRange,
			"priority operand %d of %d", priority, len(layouts))
	}
	if !fallback.IsFixed() {
		fallback = RowMajor
	}

	perm, flip := axisPlan(order, layouts, priority, fallback)
	out := make([]layout.Layout, len(layouts))
	for i, l := range layouts {
		out[i] = applyPlan(l, perm, flip)
	}
	return out, nil
}

// ResolveOrder reduces Auto to RowMajor or ColMajor for the given layouts.
// Fixed orders are returned unchanged; every other order yields fallback.
func ResolveOrder(order Order, layouts []layout.Layout, fallback Order) Order {
	if order.IsFixed() {
		return order
	}
	if !fallback.IsFixed() {
		fallback = RowMajor
	}
	if order == Auto {
		if allPrefer(layouts, layout.Layout.IsCPrefer) {
			return RowMajor
		}
		if allPrefer(layouts, layout.Layout.IsFPrefer) {
			return ColMajor
		}
	}
	return fallback
}

func axisPlan(order Order, layouts []layout.Layout, priority int, fallback Order) ([]int, []bool) {
	n := layouts[0].NDim()
	switch order {
	case RowMajor:
		perm := make([]int, n)
		for i := range perm {
			perm[i] = n - 1 - i
		}
		return perm, nil
	case ColMajor:
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		return perm, nil
	case Auto:
		return axisPlan(ResolveOrder(Auto, layouts, fallback), layouts, priority, fallback)
	case KeepSource:
		if priority >= 0 {
			return keepPerm(layouts[priority]), nil
		}
		perm := keepPerm(layouts[0])
		for _, l := range layouts[1:] {
			if !samePerm(perm, keepPerm(l), layouts[0].Shape()) {
				return axisPlan(fallback, layouts, priority, fallback)
			}
		}
		return perm, nil
	case Greedy:
		return greedyPlan(layouts)
	case BufferOrder:
		src := layouts[max(priority, 0)]
		flip := make([]bool, n)
		for a, s := range src.Stride() {
			flip[a] = s < 0
		}
		return keepPerm(src), flip
	}
	return axisPlan(fallback, layouts, priority, fallback)
}

// keepPerm sorts axes fastest first: ascending |stride|, length-1 axes last,
// ties broken towards the later axis.
func keepPerm(l layout.Layout) []int {
	shape, stride := l.Shape(), l.Stride()
	perm := make([]int, len(shape))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		a, b := perm[i], perm[j]
		if ua, ub := shape[a] == 1, shape[b] == 1; ua != ub {
			return !ua
		}
		if sa, sb := absInt(stride[a]), absInt(stride[b]); sa != sb {
			return sa < sb
		}
		return a > b
	})
	return perm
}

// greedyPlan picks, one axis at a time, the remaining axis with the smallest
// summed |stride| over all operands, and reverses axes whose summed stride
// is negative.
func greedyPlan(layouts []layout.Layout) ([]int, []bool) {
	shape := layouts[0].Shape()
	n := len(shape)
	cost := make([]int, n)
	flip := make([]bool, n)
	for a := 0; a < n; a++ {
		sum := 0
		for _, l := range layouts {
			s := l.Stride()[a]
			cost[a] += absInt(s)
			sum += s
		}
		flip[a] = sum < 0
	}

	used := make([]bool, n)
	perm := make([]int, 0, n)
	for len(perm) < n {
		best := -1
		for a := n - 1; a >= 0; a-- {
			if used[a] {
				continue
			}
			if best < 0 || better(a, best, shape, cost) {
				best = a
			}
		}
		used[best] = true
		perm = append(perm, best)
	}
	return perm, flip
}

func better(a, b int, shape layout.Shape, cost []int) bool {
	if ua, ub := shape[a] == 1, shape[b] == 1; ua != ub {
		return !ua
	}
	return cost[a] < cost[b]
}

// samePerm compares two permutations ignoring length-1 axes.
func samePerm(p, q []int, shape layout.Shape) bool {
	i, j := 0, 0
	for {
		for i < len(p) && shape[p[i]] == 1 {
			i++
		}
		for j < len(q) && shape[q[j]] == 1 {
			j++
		}
		if i == len(p) || j == len(q) {
			return i == len(p) && j == len(q)
		}
		if p[i] != q[j] {
			return false
		}
		i++
		j++
	}
}

func applyPlan(l layout.Layout, perm []int, flip []bool) layout.Layout {
	if flip != nil {
		shape := l.Shape()
		stride := l.Stride().Clone()
		offset := l.Offset()
		for a, f := range flip {
			if f && shape[a] > 0 {
				offset += stride[a] * (shape[a] - 1)
				stride[a] = -stride[a]
			}
		}
		l = layout.NewUnchecked(shape, stride, offset)
	}
	return l.TransposeUnchecked(perm)
}

func allPrefer(layouts []layout.Layout, pred func(layout.Layout) bool) bool {
	for _, l := range layouts {
		if !pred(l) {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
