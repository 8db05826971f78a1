// Package matmul classifies operand ranks into multiplication shapes and
// drives the numeric kernel over every batch coordinate.
package matmul

import "github.com/pkg/errors"

// ErrUnimplementedRank is returned for rank pairs no Kind covers.
var ErrUnimplementedRank = errors.New("unimplemented matmul rank")

// Kind is the multiplication shape selected from the operand ranks.
type Kind int

// Supported kinds. The comment gives (rank(a), rank(b)) and the output
// shape.
const (
	InnerProduct Kind = iota // (1, 1) → scalar
	MatMat                   // (2, 2) → [M, N]
	VecBatchMat              // (1, ≥2) → batch(b) + [N]
	BatchMatVec              // (≥2, 1) → batch(a) + [M]
	MatBatch                 // (2, ≥3) → batch(b) + [M, N]
	BatchMat                 // (≥3, 2) → batch(a) + [M, N]
	BatchBatch               // (≥3, ≥3) → broadcast batch + [M, N]
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case InnerProduct:
		return "InnerProduct"
	case MatMat:
		return "MatMat"
	case VecBatchMat:
		return "VecBatchMat"
	case BatchMatVec:
		return "BatchMatVec"
	case MatBatch:
		return "MatBatch"
	case BatchMat:
		return "BatchMat"
	case BatchBatch:
		return "BatchBatch"
	default:
		return "Unknown"
	}
}

// Classify maps operand ranks to a Kind. A rank-0 operand is never valid.
func Classify(rankA, rankB int) (Kind, error) {
	switch {
	case rankA < 1 || rankB < 1:
		return 0, errors.Wrapf(ErrUnimplementedRank, "rank %d by rank %d", rankA, rankB)
	case rankA == 1 && rankB == 1:
		return InnerProduct, nil
	case rankA == 1:
		return VecBatchMat, nil
	case rankB == 1:
		return BatchMatVec, nil
	case rankA == 2 && rankB == 2:
		return MatMat, nil
	case rankA == 2:
		return MatBatch, nil
	case rankB == 2:
		return BatchMat, nil
	default:
		return BatchBatch, nil
	}
}

// matrixRanks returns how many trailing axes of a and b the kernel
// consumes.
func (k Kind) matrixRanks() (ra, rb int) {
	switch k {
	case InnerProduct:
		return 1, 1
	case VecBatchMat:
		return 1, 2
	case BatchMatVec:
		return 2, 1
	default:
		return 2, 2
	}
}
