// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package strided_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/strided"
)

func newEngine(t *testing.T, threads int) *strided.Engine {
	t.Helper()
	cfg := strided.DefaultConfig()
	cfg.Parallel.NumThreads = threads
	cfg.Parallel.MinChunkSize = 4
	e, err := strided.NewEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngine_MatMulTransposed(t *testing.T) {
	e := newEngine(t, 2)
	a, err := strided.Contiguous([]float64{1, 2, 3, 4, 5, 6}, strided.Shape{2, 3}, true)
	require.NoError(t, err)
	b, err := a.Transpose(1, 0)
	require.NoError(t, err)

	c, err := strided.MatMul(e, a, b)
	require.NoError(t, err)
	assert.Equal(t, strided.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{14, 32, 32, 77}, c.ToSlice())
}

func TestEngine_Gonum(t *testing.T) {
	cfg := strided.DefaultConfig()
	cfg.Kernel = strided.KernelGonum
	e, err := strided.NewEngine(cfg)
	require.NoError(t, err)
	defer e.Close()

	a, err := strided.Contiguous([]float32{1, 2, 3, 4}, strided.Shape{2, 2}, true)
	require.NoError(t, err)
	b, err := strided.Contiguous([]float32{5, 6, 7, 8}, strided.Shape{2, 2}, false)
	require.NoError(t, err)
	c, err := strided.MatMul(e, a, b)
	require.NoError(t, err)
	// b is column-major: logical [[5, 7], [6, 8]].
	assert.Equal(t, []float32{17, 23, 39, 53}, c.ToSlice())
}

func TestEngine_Elementwise(t *testing.T) {
	for _, threads := range []int{1, 4} {
		e := newEngine(t, threads)

		x, err := strided.Contiguous([]float64{1, 2, 3}, strided.Shape{3, 1}, true)
		require.NoError(t, err)
		y, err := strided.Contiguous([]float64{10, 20}, strided.Shape{2}, true)
		require.NoError(t, err)
		out, err := strided.Zeros[float64](strided.Shape{3, 2}, true)
		require.NoError(t, err)

		require.NoError(t, strided.Zip(e, out, x, y, func(a, b float64) float64 { return a * b }))
		assert.Equal(t, []float64{10, 20, 20, 40, 30, 60}, out.Data())
		assert.Equal(t, 180.0, strided.Sum(e, out))

		require.NoError(t, strided.Fill(e, out, 1))
		assert.Equal(t, 6.0, strided.Sum(e, out))

		f, err := strided.Copy(e, x, strided.ColMajor)
		require.NoError(t, err)
		assert.True(t, f.Layout().IsFContig())
		assert.Equal(t, []float64{1, 2, 3}, f.ToSlice())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := strided.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.DefaultOrder = strided.Greedy
	assert.True(t, errors.Is(cfg.Validate(), strided.ErrUnknownOrder))

	cfg = strided.DefaultConfig()
	cfg.Kernel = "cuda"
	_, err := strided.NewEngine(cfg)
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STRIDED_NUM_THREADS", "2")
	t.Setenv(strided.EnvKernel, strided.KernelGonum)
	t.Setenv(strided.EnvDefaultOrder, "f")
	cfg, err := strided.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Parallel.NumThreads)
	assert.Equal(t, strided.KernelGonum, cfg.Kernel)
	assert.Equal(t, strided.ColMajor, cfg.DefaultOrder)

	t.Setenv(strided.EnvDefaultOrder, "sideways")
	_, err = strided.ConfigFromEnv()
	assert.True(t, errors.Is(err, strided.ErrUnknownOrder))
}

func TestOffsets(t *testing.T) {
	l := strided.NewContigLayout(strided.Shape{2, 3}, 0, true)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, strided.Offsets(l, strided.RowMajor))
	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, strided.Offsets(l, strided.ColMajor))
}

func TestPlanMatMul(t *testing.T) {
	e := newEngine(t, 1)
	p, err := strided.PlanMatMul(e,
		strided.NewContigLayout(strided.Shape{3}, 0, true),
		strided.NewContigLayout(strided.Shape{5, 3, 4}, 0, true))
	require.NoError(t, err)
	assert.Equal(t, strided.VecBatchMat, p.Kind)
	assert.Equal(t, strided.Shape{5, 4}, p.Output.Shape())

	_, err = strided.ClassifyMatMul(0, 3)
	assert.True(t, errors.Is(err, strided.ErrUnimplementedRank))
}

func ExampleMatMul() {
	e, err := strided.NewEngine(strided.DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer e.Close()

	x, _ := strided.Contiguous([]float64{1, 2, 3}, strided.Shape{3}, true)
	y, _ := strided.Contiguous([]float64{4, 5, 6}, strided.Shape{3}, true)
	dot, _ := strided.MatMul(e, x, y)
	fmt.Println(dot.ToSlice())
	// Output: [32]
}
