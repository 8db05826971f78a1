package kernel

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

// Gonum routes matrices that BLAS can address directly (one unit-stride
// axis, non-negative leading dimension) to gonum's blas32/blas64. Anything
// else, including broadcast and reversed operands, is computed by Native.
//
// Gonum manages its own goroutines, so the pool argument only reaches the
// Native fallback. Results agree with Native to rounding, not bitwise.
type Gonum[T tensor.Float] struct{}

// Name implements Kernel.
func (Gonum[T]) Name() string { return NameGonum }

// general describes a matrix as a row-major BLAS operand. When trans is
// set, the BLAS operand holds the transpose of the matrix.
type general struct {
	rows, cols, stride int
	off                int
	trans              bool
}

// blasTrans returns the BLAS flag that recovers the original matrix.
func (g general) blasTrans() blas.Transpose {
	if g.trans {
		return blas.Trans
	}
	return blas.NoTrans
}

// flip returns the flag that yields the transpose of the original matrix.
func (g general) flip() blas.Transpose {
	if g.trans {
		return blas.NoTrans
	}
	return blas.Trans
}

// asGeneral tries to express m as a row-major BLAS matrix, possibly
// transposed. Strides of length-1 axes are irrelevant and normalized.
func asGeneral(m matrix) (general, bool) {
	if m.rows == 0 || m.cols == 0 {
		return general{}, false
	}
	r0, r1 := m.s0, m.s1
	if m.cols == 1 {
		r1 = 1
	}
	if m.rows == 1 {
		r0 = m.cols
	}
	if r1 == 1 && r0 >= m.cols {
		return general{rows: m.rows, cols: m.cols, stride: r0, off: m.off}, true
	}

	t0, t1 := m.s0, m.s1
	if m.rows == 1 {
		t0 = 1
	}
	if m.cols == 1 {
		t1 = m.rows
	}
	if t0 == 1 && t1 >= m.rows {
		return general{rows: m.cols, cols: m.rows, stride: t1, off: m.off, trans: true}, true
	}
	return general{}, false
}

// asInc normalizes a vector increment, reporting false for the zero and
// negative increments that are left to Native.
func asInc(v vector) (int, bool) {
	if v.n == 0 {
		return 0, false
	}
	if v.n == 1 {
		return 1, true
	}
	return v.inc, v.inc > 0
}

// Dot implements Kernel.
func (g Gonum[T]) Dot(x, y tensor.View[T]) (T, error) {
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
	ix, okx := asInc(vx)
	iy, oky := asInc(vy)
	if !okx || !oky {
		return Native[T]{}.Dot(x, y)
	}

	switch xd := any(x.Data()).(type) {
	case []float64:
		yd := any(y.Data()).([]float64)
		r := blas64.Dot(
			blas64.Vector{N: vx.n, Data: xd[vx.off:], Inc: ix},
			blas64.Vector{N: vy.n, Data: yd[vy.off:], Inc: iy},
		)
		return T(r), nil
	case []float32:
		yd := any(y.Data()).([]float32)
		r := blas32.Dot(
			blas32.Vector{N: vx.n, Data: xd[vx.off:], Inc: ix},
			blas32.Vector{N: vy.n, Data: yd[vy.off:], Inc: iy},
		)
		return T(r), nil
	}
	return Native[T]{}.Dot(x, y)
}

// Gemv implements Kernel.
func (g Gonum[T]) Gemv(y, a, x tensor.View[T], alpha, beta T, pool *parallel.Pool) error {
	vy, ma, vx, err := gemvOperands(y, a, x)
	if err != nil {
		return err
	}
	ga, oka := asGeneral(ma)
	ix, okx := asInc(vx)
	iy, oky := asInc(vy)
	if !oka || !okx || !oky {
		return Native[T]{}.Gemv(y, a, x, alpha, beta, pool)
	}

	switch ad := any(a.Data()).(type) {
	case []float64:
		xd := any(x.Data()).([]float64)
		yd := any(y.Data()).([]float64)
		blas64.Gemv(ga.blasTrans(), float64(alpha),
			blas64.General{Rows: ga.rows, Cols: ga.cols, Stride: ga.stride, Data: ad[ga.off:]},
			blas64.Vector{N: vx.n, Data: xd[vx.off:], Inc: ix},
			float64(beta),
			blas64.Vector{N: vy.n, Data: yd[vy.off:], Inc: iy})
		return nil
	case []float32:
		xd := any(x.Data()).([]float32)
		yd := any(y.Data()).([]float32)
		blas32.Gemv(ga.blasTrans(), float32(alpha),
			blas32.General{Rows: ga.rows, Cols: ga.cols, Stride: ga.stride, Data: ad[ga.off:]},
			blas32.Vector{N: vx.n, Data: xd[vx.off:], Inc: ix},
			float32(beta),
			blas32.Vector{N: vy.n, Data: yd[vy.off:], Inc: iy})
		return nil
	}
	return Native[T]{}.Gemv(y, a, x, alpha, beta, pool)
}

// Gemm implements Kernel. A column-major output is computed as
// Cᵀ = Bᵀ·Aᵀ so that BLAS always writes row-major.
func (g Gonum[T]) Gemm(c, a, b tensor.View[T], alpha, beta T, pool *parallel.Pool) error {
	mc, ma, mb, err := gemmOperands(c, a, b)
	if err != nil {
		return err
	}
	if ma.cols == 0 {
		return Native[T]{}.Gemm(c, a, b, alpha, beta, pool)
	}
	gc, okc := asGeneral(mc)
	ga, oka := asGeneral(ma)
	gb, okb := asGeneral(mb)
	if !okc || !oka || !okb {
		return Native[T]{}.Gemm(c, a, b, alpha, beta, pool)
	}

	tA, tB := ga.blasTrans(), gb.blasTrans()
	first, second := ga, gb
	firstData, secondData := a.Data(), b.Data()
	if gc.trans {
		tA, tB = gb.flip(), ga.flip()
		first, second = gb, ga
		firstData, secondData = b.Data(), a.Data()
	}

	switch cd := any(c.Data()).(type) {
	case []float64:
		fd := any(firstData).([]float64)
		sd := any(secondData).([]float64)
		blas64.Gemm(tA, tB, float64(alpha),
			blas64.General{Rows: first.rows, Cols: first.cols, Stride: first.stride, Data: fd[first.off:]},
			blas64.General{Rows: second.rows, Cols: second.cols, Stride: second.stride, Data: sd[second.off:]},
			float64(beta),
			blas64.General{Rows: gc.rows, Cols: gc.cols, Stride: gc.stride, Data: cd[gc.off:]})
		return nil
	case []float32:
		fd := any(firstData).([]float32)
		sd := any(secondData).([]float32)
		blas32.Gemm(tA, tB, float32(alpha),
			blas32.General{Rows: first.rows, Cols: first.cols, Stride: first.stride, Data: fd[first.off:]},
			blas32.General{Rows: second.rows, Cols: second.cols, Stride: second.stride, Data: sd[second.off:]},
			float32(beta),
			blas32.General{Rows: gc.rows, Cols: gc.cols, Stride: gc.stride, Data: cd[gc.off:]})
		return nil
	}
	return Native[T]{}.Gemm(c, a, b, alpha, beta, pool)
}

// Syrk implements Kernel. BLAS fills the upper triangle of the output's
// row-major form; the lower triangle is mirrored afterwards.
func (g Gonum[T]) Syrk(c, a tensor.View[T], alpha T, pool *parallel.Pool) error {
	mc, ma, err := syrkOperands(c, a)
	if err != nil {
		return err
	}
	if ma.cols == 0 {
		return Native[T]{}.Syrk(c, a, alpha, pool)
	}
	gc, okc := asGeneral(mc)
	ga, oka := asGeneral(ma)
	if !okc || !oka {
		return Native[T]{}.Syrk(c, a, alpha, pool)
	}
	// A·Aᵀ where A is stored transposed is Gᵀ·G.
	t := blas.NoTrans
	if ga.trans {
		t = blas.Trans
	}
	n := gc.rows

	switch cd := any(c.Data()).(type) {
	case []float64:
		ad := any(a.Data()).([]float64)
		blas64.Syrk(t, float64(alpha),
			blas64.General{Rows: ga.rows, Cols: ga.cols, Stride: ga.stride, Data: ad[ga.off:]},
			0,
			blas64.Symmetric{Uplo: blas.Upper, N: n, Stride: gc.stride, Data: cd[gc.off:]})
	case []float32:
		ad := any(a.Data()).([]float32)
		blas32.Syrk(t, float32(alpha),
			blas32.General{Rows: ga.rows, Cols: ga.cols, Stride: ga.stride, Data: ad[ga.off:]},
			0,
			blas32.Symmetric{Uplo: blas.Upper, N: n, Stride: gc.stride, Data: cd[gc.off:]})
	default:
		return Native[T]{}.Syrk(c, a, alpha, pool)
	}

	cd := c.Data()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cd[gc.off+j*gc.stride+i] = cd[gc.off+i*gc.stride+j]
		}
	}
	return nil
}
