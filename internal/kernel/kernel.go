// Package kernel holds the numeric kernels the matmul dispatcher calls on
// single matrices and vectors.
//
// A kernel sees strided views only; batching, broadcasting and the choice of
// serial or parallel execution belong to the caller. When a kernel receives
// a non-nil pool it may split its own loop across it, otherwise it must run
// on the calling goroutine.
package kernel

import (
	"github.com/pkg/errors"

	"github.com/born-ml/strided/internal/layout"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/tensor"
)

// Kernel computes the BLAS-like primitives used by matmul.
//
// Shapes: Dot takes two vectors of length k. Gemv computes
// y = alpha*A*x + beta*y for A (m,k), x (k), y (m). Gemm computes
// C = alpha*A*B + beta*C for A (m,k), B (k,n), C (m,n). Syrk computes
// C = alpha*A*Aᵀ for A (m,k), C (m,m), overwriting C.
//
// When beta is zero the previous contents of the output are not read.
type Kernel[T tensor.Float] interface {
	Name() string
	Dot(x, y tensor.View[T]) (T, error)
	Gemv(y, a, x tensor.View[T], alpha, beta T, pool *parallel.Pool) error
	Gemm(c, a, b tensor.View[T], alpha, beta T, pool *parallel.Pool) error
	Syrk(c, a tensor.View[T], alpha T, pool *parallel.Pool) error
}

// ErrUnknownKernel is returned by New for an unrecognized kernel name.
var ErrUnknownKernel = errors.New("unknown kernel")

// Names of the built-in kernels.
const (
	NameNative = "native"
	NameGonum  = "gonum"
)

// New returns the kernel registered under name. An empty name selects the
// native kernel.
func New[T tensor.Float](name string) (Kernel[T], error) {
	switch name {
	case "", NameNative:
		return Native[T]{}, nil
	case NameGonum:
		return Gonum[T]{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKernel, "%q", name)
	}
}

// matrix is a 2D strided operand resolved against its buffer.
type matrix struct {
	rows, cols int
	s0, s1     int
	off        int
}

func matrixOf[T tensor.DType](v tensor.View[T], name string) (matrix, error) {
	l := v.Layout()
	if l.NDim() != 2 {
		return matrix{}, errors.Wrapf(layout.ErrInvalidLayout, "%s: expected a matrix, got %dD", name, l.NDim())
	}
	sh, st := l.Shape(), l.Stride()
	return matrix{rows: sh[0], cols: sh[1], s0: st[0], s1: st[1], off: l.Offset()}, nil
}

// at returns the buffer position of element (i, j).
func (m matrix) at(i, j int) int {
	return m.off + i*m.s0 + j*m.s1
}

// t returns the transposed matrix over the same positions.
func (m matrix) t() matrix {
	return matrix{rows: m.cols, cols: m.rows, s0: m.s1, s1: m.s0, off: m.off}
}

// vector is a 1D strided operand resolved against its buffer.
type vector struct {
	n, inc, off int
}

func vectorOf[T tensor.DType](v tensor.View[T], name string) (vector, error) {
	l := v.Layout()
	if l.NDim() != 1 {
		return vector{}, errors.Wrapf(layout.ErrInvalidLayout, "%s: expected a vector, got %dD", name, l.NDim())
	}
	return vector{n: l.Shape()[0], inc: l.Stride()[0], off: l.Offset()}, nil
}

func dimMismatch(op string, dims ...int) error {
	return errors.Wrapf(layout.ErrInvalidLayout, "%s: dimension mismatch %v", op, dims)
}

// gemmOperands resolves and checks the operands of Gemm.
func gemmOperands[T tensor.DType](c, a, b tensor.View[T]) (mc, ma, mb matrix, err error) {
	if mc, err = matrixOf(c, "c"); err != nil {
		return
	}
	if ma, err = matrixOf(a, "a"); err != nil {
		return
	}
	if mb, err = matrixOf(b, "b"); err != nil {
		return
	}
	if ma.cols != mb.rows || mc.rows != ma.rows || mc.cols != mb.cols {
		err = dimMismatch("gemm", ma.rows, ma.cols, mb.rows, mb.cols, mc.rows, mc.cols)
	}
	return
}

// gemvOperands resolves and checks the operands of Gemv.
func gemvOperands[T tensor.DType](y, a, x tensor.View[T]) (vy vector, ma matrix, vx vector, err error) {
	if vy, err = vectorOf(y, "y"); err != nil {
		return
	}
	if ma, err = matrixOf(a, "a"); err != nil {
		return
	}
	if vx, err = vectorOf(x, "x"); err != nil {
		return
	}
	if ma.cols != vx.n || ma.rows != vy.n {
		err = dimMismatch("gemv", ma.rows, ma.cols, vx.n, vy.n)
	}
	return
}

// syrkOperands resolves and checks the operands of Syrk.
func syrkOperands[T tensor.DType](c, a tensor.View[T]) (mc, ma matrix, err error) {
	if mc, err = matrixOf(c, "c"); err != nil {
		return
	}
	if ma, err = matrixOf(a, "a"); err != nil {
		return
	}
	if mc.rows != ma.rows || mc.cols != ma.rows {
		err = dimMismatch("syrk", ma.rows, ma.cols, mc.rows, mc.cols)
	}
	return
}
