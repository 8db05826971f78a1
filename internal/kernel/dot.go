package kernel

import (
	"golang.org/x/sys/cpu"

	"github.com/born-ml/strided/internal/tensor"
)

// maxLanes bounds the accumulator array used by the unrolled loops.
const maxLanes = 8

// lanes is the number of independent accumulators in the unrolled loops.
// Wider vector units keep more partial sums in flight. The value is fixed
// for the life of the process, so results never depend on how work was
// partitioned.
var lanes = detectLanes()

func detectLanes() int {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		return maxLanes
	}
	return 4
}

// Lanes reports the accumulator width selected for this CPU.
func Lanes() int {
	return lanes
}

// dot returns sum x[i]*y[i] over n strided elements. Partial sums are kept
// in lanes accumulators and folded in a fixed order.
func dot[T tensor.Float](n int, x []T, ox, sx int, y []T, oy, sy int) T {
	var acc [maxLanes]T
	w := lanes
	i := 0
	for ; i+w <= n; i += w {
		px, py := ox+i*sx, oy+i*sy
		for j := 0; j < w; j++ {
			acc[j] += x[px] * y[py]
			px += sx
			py += sy
		}
	}
	for j := 0; i < n; i, j = i+1, j+1 {
		acc[j] += x[ox+i*sx] * y[oy+i*sy]
	}
	return fold(acc[:w])
}

// fold sums acc pairwise.
func fold[T tensor.Float](acc []T) T {
	for len(acc) > 1 {
		half := len(acc) / 2
		for j := 0; j < half; j++ {
			acc[j] += acc[j+half]
		}
		if len(acc)%2 == 1 {
			acc[0] += acc[len(acc)-1]
		}
		acc = acc[:half]
	}
	return acc[0]
}

// Sum adds n strided elements of x in the same fixed order dot uses.
func Sum[T tensor.Float](n int, x []T, ox, sx int) T {
	var acc [maxLanes]T
	w := lanes
	i := 0
	for ; i+w <= n; i += w {
		px := ox + i*sx
		for j := 0; j < w; j++ {
			acc[j] += x[px]
			px += sx
		}
	}
	for j := 0; i < n; i, j = i+1, j+1 {
		acc[j] += x[ox+i*sx]
	}
	return fold(acc[:w])
}
