package ops

import (
	"github.com/born-ml/strided/internal/kernel"
	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
	"github.com/born-ml/strided/internal/traverse"
)

// Assign copies src into dst, broadcasting src to dst's shape.
//
// If the two buffers overlap the copy runs serially in a single pass; the
// result is only well defined when every destination element depends on the
// source element at the same logical index.
func Assign[T tensor.DType](p *parallel.Policy, dst, src tensor.View[T]) error {
	pl, err := prepare("assign", dst.Layout(), src.Layout())
	if err != nil {
		return err
	}
	d, s := dst.Data(), src.Data()
	block, steps := pl.chunk.Block, pl.chunk.Steps
	pl.run(p, tensor.Overlaps(dst, src), func(offs []int) {
		od, oi := offs[0], offs[1]
		if steps[0] == 1 && steps[1] == 1 {
			copy(d[od:od+block], s[oi:oi+block])
			return
		}
		for i := 0; i < block; i++ {
			d[od] = s[oi]
			od += steps[0]
			oi += steps[1]
		}
	})
	return nil
}

// Fill sets every element of dst to v.
func Fill[T tensor.DType](p *parallel.Policy, dst tensor.View[T], v T) error {
	pl, err := prepare("fill", dst.Layout())
	if err != nil {
		return err
	}
	d := dst.Data()
	block, step := pl.chunk.Block, pl.chunk.Steps[0]
	pl.run(p, false, func(offs []int) {
		od := offs[0]
		if step == 1 {
			seg := d[od : od+block]
			for i := range seg {
				seg[i] = v
			}
			return
		}
		for i := 0; i < block; i++ {
			d[od] = v
			od += step
		}
	})
	return nil
}

// Map stores f(src[i]) into dst[i], broadcasting src to dst's shape.
func Map[T, U tensor.DType](p *parallel.Policy, dst tensor.View[U], src tensor.View[T], f func(T) U) error {
	pl, err := prepare("map", dst.Layout(), src.Layout())
	if err != nil {
		return err
	}
	d, s := dst.Data(), src.Data()
	block, steps := pl.chunk.Block, pl.chunk.Steps
	pl.run(p, tensor.Overlaps(dst, src), func(offs []int) {
		od, oi := offs[0], offs[1]
		for i := 0; i < block; i++ {
			d[od] = f(s[oi])
			od += steps[0]
			oi += steps[1]
		}
	})
	return nil
}

// Zip stores f(a[i], b[i]) into dst[i]. Both sources are broadcast to dst's
// shape.
func Zip[A, B, C tensor.DType](p *parallel.Policy, dst tensor.View[C], a tensor.View[A], b tensor.View[B], f func(A, B) C) error {
	pl, err := prepare("zip", dst.Layout(), a.Layout(), b.Layout())
	if err != nil {
		return err
	}
	d, x, y := dst.Data(), a.Data(), b.Data()
	block, steps := pl.chunk.Block, pl.chunk.Steps
	serial := tensor.Overlaps(dst, a) || tensor.Overlaps(dst, b)
	pl.run(p, serial, func(offs []int) {
		od, oa, ob := offs[0], offs[1], offs[2]
		for i := 0; i < block; i++ {
			d[od] = f(x[oa], y[ob])
			od += steps[0]
			oa += steps[1]
			ob += steps[2]
		}
	})
	return nil
}

// sumGroup is the number of elements folded into one partial sum.
const sumGroup = 4096

// Sum adds all elements of src.
//
// Blocks are gathered into fixed groups of about sumGroup elements. Each
// group yields a partial sum and the partials are added in group order, so
// the result does not depend on the thread count.
func Sum[T tensor.Float](p *parallel.Policy, src tensor.View[T]) T {
	if src.Size() == 0 {
		return 0
	}
	l, _ := traverse.TranslateLayouts(traverse.BufferOrder, []layout.Layout{src.Layout()}, 0, traverse.RowMajor)
	ch := traverse.Chunk(l, traverse.MinContiguousBlock)
	outer := ch.Outer[0]
	n := outer.Size()
	block, step := ch.Block, ch.Steps[0]
	s := src.Data()

	per := max(sumGroup/block, 1)
	groups := (n + per - 1) / per
	partials := make([]T, groups)
	group := func(g int) {
		start := g * per
		end := min(start+per, n)
		it := traverse.NewOffsetIterRange(outer, start, end)
		var acc T
		for {
			off, ok := it.Next()
			if !ok {
				break
			}
			acc += kernel.Sum(block, s, off, step)
		}
		partials[g] = acc
	}

	if groups > 1 && p.ShouldParallelize(n*block) {
		p.Each(groups, group)
	} else {
		for g := range groups {
			group(g)
		}
	}

	var total T
	for _, v := range partials {
		total += v
	}
	return total
}
