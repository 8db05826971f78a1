package kernel

import (
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

// Native is the pure Go kernel. Every output element is produced by one
// unrolled dot product whose summation order depends only on the operand
// shapes, so serial and pooled runs are bit-identical.
type Native[T tensor.Float] struct{}

// Name implements Kernel.
func (Native[T]) Name() string { return NameNative }

// Dot implements Kernel.
func (Native[T]) Dot(x, y tensor.View[T]) (T, error) {
	vx, err := vectorOf(x, "x")
	if err != nil {
		return 0, err
	}
	vy, err := vectorOf(y, "y")
	if err != nil {
		return 0, err
	}
	if vx.n != vy.n {
		return 0, dimMismatch("dot", vx.n, vy.n)
	}
	return dot(vx.n, x.Data(), vx.off, vx.inc, y.Data(), vy.off, vy.inc), nil
}

// Gemv implements Kernel. Rows of y are split across the pool.
func (Native[T]) Gemv(y, a, x tensor.View[T], alpha, beta T, pool *parallel.Pool) error {
	vy, ma, vx, err := gemvOperands(y, a, x)
	if err != nil {
		return err
	}
	yd, ad, xd := y.Data(), a.Data(), x.Data()
	split(pool, vy.n, func(start, end int) {
		for i := start; i < end; i++ {
			s := dot(ma.cols, ad, ma.at(i, 0), ma.s1, xd, vx.off, vx.inc)
			p := vy.off + i*vy.inc
			yd[p] = scale(s, alpha, beta, yd[p])
		}
	})
	return nil
}

// Gemm implements Kernel. The longer output axis is split across the pool.
func (Native[T]) Gemm(c, a, b tensor.View[T], alpha, beta T, pool *parallel.Pool) error {
	mc, ma, mb, err := gemmOperands(c, a, b)
	if err != nil {
		return err
	}
	cd, ad, bd := c.Data(), a.Data(), b.Data()
	k := ma.cols
	cell := func(i, j int) {
		s := dot(k, ad, ma.at(i, 0), ma.s1, bd, mb.at(0, j), mb.s0)
		p := mc.at(i, j)
		cd[p] = scale(s, alpha, beta, cd[p])
	}

	if mc.rows >= mc.cols {
		split(pool, mc.rows, func(start, end int) {
			for i := start; i < end; i++ {
				for j := 0; j < mc.cols; j++ {
					cell(i, j)
				}
			}
		})
		return nil
	}
	split(pool, mc.cols, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < mc.rows; i++ {
				cell(i, j)
			}
		}
	})
	return nil
}

// Syrk implements Kernel. Only the upper triangle is computed; each value
// is mirrored to its transposed position. The result matches Gemm(c, a, aᵀ)
// bit for bit.
func (Native[T]) Syrk(c, a tensor.View[T], alpha T, pool *parallel.Pool) error {
	mc, ma, err := syrkOperands(c, a)
	if err != nil {
		return err
	}
	cd, ad := c.Data(), a.Data()
	k := ma.cols
	split(pool, mc.rows, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i; j < mc.cols; j++ {
				v := alpha * dot(k, ad, ma.at(i, 0), ma.s1, ad, ma.at(j, 0), ma.s1)
				cd[mc.at(i, j)] = v
				cd[mc.at(j, i)] = v
			}
		}
	})
	return nil
}

// scale returns alpha*s + beta*prev, ignoring prev when beta is zero.
func scale[T tensor.Float](s, alpha, beta, prev T) T {
	if beta == 0 {
		return alpha * s
	}
	return alpha*s + beta*prev
}

// split runs fn over [0, n), across the pool when one is given.
func split(pool *parallel.Pool, n int, fn func(start, end int)) {
	if pool == nil || n < 2 {
		fn(0, n)
		return
	}
	pool.ParallelFor(n, fn)
}
