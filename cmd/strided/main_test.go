package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "strided "+version+"\n", out)
}

func TestLayoutCmd(t *testing.T) {
	out, err := run(t, "layout", "2x3", "--order", "f")
	require.NoError(t, err)
	assert.Contains(t, out, "Layout{shape: [2 3], stride: [3 1], offset: 0}")
	assert.Contains(t, out, "c-contig:   true")
	assert.Contains(t, out, "ColMajor offsets: 0 3 1 4 2 5\n")

	out, err = run(t, "layout", "2x2", "--stride", "-2,1", "--offset", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "bounds:     [0, 4)")
	assert.Contains(t, out, "RowMajor offsets: 2 3 0 1\n")

	out, err = run(t, "layout", "100")
	require.NoError(t, err)
	assert.Contains(t, out, " ...\n")
}

func TestLayoutCmd_Errors(t *testing.T) {
	_, err := run(t, "layout", "2xq")
	assert.Error(t, err)

	_, err = run(t, "layout", "2x3", "--order", "sideways")
	assert.Error(t, err)

	_, err = run(t, "layout", "2x3", "--stride", "1")
	assert.Error(t, err)
}

func TestPlanCmd(t *testing.T) {
	out, err := run(t, "plan", "3", "5x3x4")
	require.NoError(t, err)
	assert.Contains(t, out, "kind:    VecBatchMat")
	assert.Contains(t, out, "m, k, n: 1, 3, 4")
	assert.Contains(t, out, "shape: [5 4]")

	_, err = run(t, "plan", "2x3", "4x5")
	assert.Error(t, err)
}

func TestMatMulCmd(t *testing.T) {
	out, err := run(t, "matmul", "4x2x3", "3x2", "--repeat", "1", "--threads", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "output [4 2 2], threads 2, kernel native")

	out, err = run(t, "matmul", "8x8", "8x8", "--repeat", "2", "--kernel", "gonum", "--f32")
	require.NoError(t, err)
	assert.Contains(t, out, "kernel gonum")

	_, err = run(t, "matmul", "2x2", "2x2", "--kernel", "cuda")
	assert.Error(t, err)
}
