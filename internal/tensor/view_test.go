package tensor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/internal/layout"
)

func TestNewView_Bounds(t *testing.T) {
	buf := make([]float32, 12)

	_, err := NewView(buf, layout.NewC(layout.Shape{3, 4}, 0))
	require.NoError(t, err)

	_, err = NewView(buf, layout.NewC(layout.Shape{3, 4}, 1))
	assert.True(t, errors.Is(err, layout.ErrInvalidLayout))

	// Empty layouts never touch memory.
	_, err = NewView([]float32{}, layout.NewC(layout.Shape{0, 4}, 0))
	assert.NoError(t, err)
}

func TestContiguous(t *testing.T) {
	v, err := Contiguous([]float64{1, 2, 3, 4, 5, 6}, layout.Shape{2, 3}, true)
	require.NoError(t, err)
	x, err := v.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, x)

	f, err := Contiguous([]float64{1, 2, 3, 4, 5, 6}, layout.Shape{2, 3}, false)
	require.NoError(t, err)
	x, err = f.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, x)

	_, err = Contiguous([]float64{1, 2}, layout.Shape{2, 3}, true)
	assert.True(t, errors.Is(err, layout.ErrInvalidLayout))
}

func TestView_TransposeSharesBuffer(t *testing.T) {
	v, err := Contiguous([]int32{1, 2, 3, 4, 5, 6}, layout.Shape{2, 3}, true)
	require.NoError(t, err)
	tr, err := v.Transpose(1, 0)
	require.NoError(t, err)

	assert.Equal(t, layout.Shape{3, 2}, tr.Shape())
	assert.Equal(t, []int32{1, 4, 2, 5, 3, 6}, tr.ToSlice())

	require.NoError(t, tr.Set(42, 2, 1))
	x, err := v.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(42), x)
	assert.True(t, SameBuffer(v, tr))
}

func TestView_NarrowSelectBroadcast(t *testing.T) {
	v, err := Contiguous([]float32{0, 1, 2, 3, 4, 5, 6, 7}, layout.Shape{2, 4}, true)
	require.NoError(t, err)

	rev, err := v.Narrow(1, layout.All().WithStep(-2))
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1, 7, 5}, rev.ToSlice())

	row, err := v.Select(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6, 7}, row.ToSlice())

	b, err := row.BroadcastTo(layout.Shape{2, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6, 7, 4, 5, 6, 7}, b.ToSlice())
}

func TestOverlaps(t *testing.T) {
	buf := make([]float64, 10)
	a := ViewUnchecked(buf[:6], layout.NewC(layout.Shape{6}, 0))
	b := ViewUnchecked(buf[4:], layout.NewC(layout.Shape{6}, 0))
	c := ViewUnchecked(make([]float64, 6), layout.NewC(layout.Shape{6}, 0))

	assert.True(t, Overlaps(a, b))
	assert.False(t, SameBuffer(a, b))
	assert.False(t, Overlaps(a, c))
}

func TestOverlaps_RegionsOfOneBuffer(t *testing.T) {
	arena := make([]float64, 100)
	a := ViewUnchecked(arena, layout.NewC(layout.Shape{2, 3}, 0))
	b := ViewUnchecked(arena, layout.NewC(layout.Shape{3, 2}, 6))
	c := ViewUnchecked(arena, layout.NewC(layout.Shape{2, 2}, 50))
	assert.False(t, Overlaps(a, b))
	assert.False(t, Overlaps(c, a))
	assert.False(t, Overlaps(c, b))

	// [10, 17) against [16, 20)
	d := ViewUnchecked(arena, layout.NewC(layout.Shape{7}, 10))
	e := ViewUnchecked(arena, layout.NewC(layout.Shape{2, 2}, 16))
	assert.True(t, Overlaps(d, e))

	empty := ViewUnchecked(arena, layout.NewC(layout.Shape{0, 3}, 0))
	assert.False(t, Overlaps(a, empty))
}

type celsius float64

func TestDataType(t *testing.T) {
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Int64, DataTypeOf[int64]())
	assert.Equal(t, Float64, DataTypeOf[celsius]())
	assert.Equal(t, "uint8", Uint8.String())

	v := ViewUnchecked([]celsius{1, 2}, layout.NewC(layout.Shape{2}, 0))
	assert.Equal(t, "View[float64]Layout{shape: [2], stride: [1], offset: 0}", v.String())
}
