// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package strided is a strided multi-dimensional array engine for Go.
//
// # Overview
//
// Arrays are flat Go slices addressed through a Layout: a shape, a stride
// per axis and a base offset. Transposing, slicing, selecting and
// broadcasting only produce new layouts; data never moves. This package
// provides:
//   - Layout construction and manipulation (NewLayout, Transpose, Narrow, ...)
//   - NumPy-style broadcasting with zero strides
//   - Order-aware traversal (RowMajor, ColMajor, Auto, KeepSource, Greedy)
//   - Elementwise Assign, Fill, Map, Zip and Sum over strided views
//   - Rank-polymorphic MatMul with batch broadcasting
//
// # Basic Usage
//
//	e, err := strided.NewEngine(strided.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	a, _ := strided.Contiguous([]float64{1, 2, 3, 4, 5, 6}, strided.Shape{2, 3}, true)
//	b, _ := a.Transpose(1, 0)             // (3, 2) view over the same slice
//	c, _ := strided.MatMul(e, a, b)        // (2, 2)
//
// # Parallelism
//
// An Engine owns a fixed pool of workers. Elementwise work goes parallel
// only when there are more than MinChunkSize elements per thread; batched
// matrix products go parallel across batches when there are more than two
// batches per thread, and otherwise hand the pool to the kernel. Results
// are identical bit for bit whichever path runs.
//
// # Kernels
//
// Matrix products are computed by a pluggable kernel: "native" (pure Go,
// deterministic) or "gonum" (gonum BLAS for BLAS-compatible operands).
package strided
