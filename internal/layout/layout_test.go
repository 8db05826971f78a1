package layout

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		shape  Shape
		stride Stride
		offset int
		err    error
	}{
		{"c contiguous", Shape{2, 3}, Stride{3, 1}, 0, nil},
		{"broadcast axis", Shape{4, 3}, Stride{0, 1}, 0, nil},
		{"negative stride in bounds", Shape{3}, Stride{-1}, 2, nil},
		{"empty", Shape{0, 3}, Stride{3, 1}, 0, nil},
		{"scalar", Shape{}, Stride{}, 5, nil},
		{"rank mismatch", Shape{2, 3}, Stride{1}, 0, ErrInvalidLayout},
		{"negative dim", Shape{-1}, Stride{1}, 0, ErrInvalidLayout},
		{"negative offset", Shape{2}, Stride{1}, -1, ErrInvalidLayout},
		{"negative address", Shape{3}, Stride{-1}, 1, ErrInvalidLayout},
		{"overlap", Shape{2, 3}, Stride{2, 1}, 0, ErrInvalidLayout},
		{"equal strides", Shape{2, 2}, Stride{1, 1}, 0, ErrInvalidLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.shape, tt.stride, tt.offset)
			if tt.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shape.NumElements(), l.Size())
			assert.Equal(t, len(tt.shape), l.NDim())
		})
	}
}

func TestNew_CopiesInputs(t *testing.T) {
	shape := Shape{2, 3}
	stride := Stride{3, 1}
	l, err := New(shape, stride, 0)
	require.NoError(t, err)

	shape[0] = 7
	stride[0] = 9
	assert.Equal(t, Shape{2, 3}, l.Shape())
	assert.Equal(t, Stride{3, 1}, l.Stride())
}

func TestContiguity(t *testing.T) {
	tests := []struct {
		name             string
		l                Layout
		cContig, fContig bool
		cPrefer, fPrefer bool
	}{
		{"c", NewC(Shape{2, 3, 4}, 0), true, false, true, false},
		{"f", NewF(Shape{2, 3, 4}, 0), false, true, false, true},
		{"vector", NewC(Shape{5}, 0), true, true, true, true},
		{"unit axes ignored", NewUnchecked(Shape{1, 3, 1}, Stride{99, 1, 42}, 0), true, true, true, true},
		{"padded rows", NewUnchecked(Shape{3, 4}, Stride{10, 1}, 0), false, false, true, false},
		{"padded cols", NewUnchecked(Shape{3, 4}, Stride{1, 10}, 0), false, false, false, true},
		{"empty", NewUnchecked(Shape{3, 0}, Stride{7, 3}, 0), true, true, true, true},
		{"reversed", NewUnchecked(Shape{3}, Stride{-1}, 2), false, false, false, false},
		{"strided both", NewUnchecked(Shape{3, 4}, Stride{8, 2}, 0), false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.cContig, tt.l.IsCContig(), "c contig")
			assert.Equal(t, tt.fContig, tt.l.IsFContig(), "f contig")
			assert.Equal(t, tt.cPrefer, tt.l.IsCPrefer(), "c prefer")
			assert.Equal(t, tt.fPrefer, tt.l.IsFPrefer(), "f prefer")
		})
	}
}

func TestIndex(t *testing.T) {
	l := NewC(Shape{2, 3, 4}, 5)

	pos, err := l.Index(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5+12+8+3, pos)

	pos, err = l.Index(-1, -1, -1)
	require.NoError(t, err)
	assert.Equal(t, 5+12+8+3, pos)
	assert.Equal(t, pos, l.IndexUnchecked(1, 2, 3))

	_, err = l.Index(2, 0, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = l.Index(-3, 0, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = l.Index(0, 0)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestBoundsIndex(t *testing.T) {
	lo, hi := NewC(Shape{2, 3}, 4).BoundsIndex()
	assert.Equal(t, 4, lo)
	assert.Equal(t, 10, hi)

	l := NewUnchecked(Shape{3, 2}, Stride{-2, 1}, 4)
	lo, hi = l.BoundsIndex()
	assert.Equal(t, 0, lo)
	assert.Equal(t, 6, hi)

	lo, hi = NewC(Shape{0, 3}, 7).BoundsIndex()
	assert.Equal(t, 7, lo)
	assert.Equal(t, 7, hi)
}

func TestTranspose_RoundTrip(t *testing.T) {
	l := NewUnchecked(Shape{2, 3, 4, 5}, Stride{60, 1, 15, 3}, 7)
	perms := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
		{-1, 0, -3, 2},
	}
	for _, p := range perms {
		tr, err := l.Transpose(p...)
		require.NoError(t, err)

		inv := make([]int, len(p))
		for i, a := range p {
			if a < 0 {
				a += len(p)
			}
			inv[a] = i
		}
		back, err := tr.Transpose(inv...)
		require.NoError(t, err)
		assert.True(t, l.Equal(back), "perm %v: got %v", p, back)
	}
}

func TestTranspose_Errors(t *testing.T) {
	l := NewC(Shape{2, 3}, 0)
	_, err := l.Transpose(0)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
	_, err = l.Transpose(0, 0)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
	_, err = l.Transpose(0, 2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestReverseAndSwapAxes(t *testing.T) {
	l := NewC(Shape{2, 3, 4}, 0)
	r := l.ReverseAxes()
	assert.Equal(t, Shape{4, 3, 2}, r.Shape())
	assert.Equal(t, Stride{1, 4, 12}, r.Stride())
	assert.True(t, r.IsFContig())

	s, err := l.SwapAxes(0, -1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3, 2}, s.Shape())
	assert.Equal(t, Stride{1, 4, 12}, s.Stride())

	_, err = l.SwapAxes(0, 3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDimInsert(t *testing.T) {
	c := NewC(Shape{3, 4}, 0)
	for axis := -3; axis <= 2; axis++ {
		got, err := c.DimInsert(axis)
		require.NoError(t, err)
		assert.Equal(t, 3, got.NDim())
		assert.True(t, got.IsCContig(), "axis %d: %v", axis, got)
	}

	f := NewF(Shape{3, 4}, 0)
	got, err := f.DimInsert(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 1, 4}, got.Shape())
	assert.Equal(t, Stride{1, 3, 3}, got.Stride())
	assert.True(t, got.IsFContig())

	_, err = c.DimInsert(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = c.DimInsert(-4)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDimSelect(t *testing.T) {
	l := NewC(Shape{2, 3, 4}, 1)

	got, err := l.DimSelect(1, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 4}, got.Shape())
	assert.Equal(t, Stride{12, 1}, got.Stride())
	assert.Equal(t, 1+8, got.Offset())

	got, err = l.DimSelect(-1, -1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got.Shape())
	assert.Equal(t, 1+3, got.Offset())

	_, err = l.DimSelect(0, 2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDimNarrow(t *testing.T) {
	l := NewC(Shape{10}, 0)
	tests := []struct {
		name   string
		s      Slice
		shape  int
		stride int
		offset int
	}{
		{"all", All(), 10, 1, 0},
		{"range", Range(2, 5), 3, 1, 2},
		{"step", Range(1, 10).WithStep(3), 3, 3, 1},
		{"negative bounds", Range(-4, -1), 3, 1, 6},
		{"reverse", All().WithStep(-1), 10, -1, 9},
		{"reverse step 2", All().WithStep(-2), 5, -2, 9},
		{"reverse range", Range(7, 2).WithStep(-2), 3, -2, 7},
		{"clamped stop", Range(8, 100), 2, 1, 8},
		{"clamped start", From(-100), 10, 1, 0},
		{"empty", Range(5, 2), 0, 1, 0},
		{"past end", From(12), 0, 1, 0},
		{"to", To(3), 3, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.DimNarrow(0, tt.s)
			require.NoError(t, err)
			assert.Equal(t, Shape{tt.shape}, got.Shape())
			assert.Equal(t, Stride{tt.stride}, got.Stride())
			assert.Equal(t, tt.offset, got.Offset())
		})
	}

	_, err := l.DimNarrow(0, All().WithStep(0))
	assert.True(t, errors.Is(err, ErrValueOutOfRange))
}

func TestDimNarrow_ResultIsValid(t *testing.T) {
	l := NewC(Shape{4, 6}, 0)
	got, err := l.DimNarrow(1, All().WithStep(-2))
	require.NoError(t, err)

	_, err = New(got.Shape(), got.Stride(), got.Offset())
	require.NoError(t, err)
	lo, hi := got.BoundsIndex()
	assert.GreaterOrEqual(t, lo, 0)
	assert.LessOrEqual(t, hi, 24)
}

func TestDimSplitAt(t *testing.T) {
	l := NewC(Shape{2, 3, 4, 5}, 3)

	head, tail, err := l.DimSplitAt(-2)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, head.Shape())
	assert.Equal(t, Stride{60, 20}, head.Stride())
	assert.Equal(t, Shape{4, 5}, tail.Shape())
	assert.Equal(t, 3, head.Offset())
	assert.Equal(t, 3, tail.Offset())

	head, tail, err = l.DimSplitAt(0)
	require.NoError(t, err)
	assert.Equal(t, 0, head.NDim())
	assert.Equal(t, 4, tail.NDim())

	_, _, err = l.DimSplitAt(5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDimEliminate(t *testing.T) {
	l := NewC(Shape{2, 1, 3}, 0)
	got, err := l.DimEliminate(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got.Shape())

	_, err = l.DimEliminate(0)
	assert.True(t, errors.Is(err, ErrValueOutOfRange))
}

func TestReshape(t *testing.T) {
	t.Run("contiguous", func(t *testing.T) {
		got, ok, err := NewC(Shape{2, 3, 4}, 0).Reshape(Shape{6, -1}, true)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Shape{6, 4}, got.Shape())
		assert.Equal(t, Stride{4, 1}, got.Stride())
	})
	t.Run("column major", func(t *testing.T) {
		got, ok, err := NewF(Shape{2, 3, 4}, 0).Reshape(Shape{6, 4}, false)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Stride{1, 6}, got.Stride())
	})
	t.Run("split strided axis", func(t *testing.T) {
		l := NewUnchecked(Shape{6, 5}, Stride{10, 1}, 0)
		got, ok, err := l.Reshape(Shape{2, 3, 5}, true)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Stride{30, 10, 1}, got.Stride())
	})
	t.Run("unit axes", func(t *testing.T) {
		got, ok, err := NewC(Shape{6}, 2).Reshape(Shape{1, 2, 1, 3, 1}, true)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Shape{1, 2, 1, 3, 1}, got.Shape())
		assert.True(t, got.IsCContig())
		assert.Equal(t, 2, got.Offset())
	})
	t.Run("needs copy", func(t *testing.T) {
		l := NewC(Shape{2, 3}, 0).ReverseAxes()
		_, ok, err := l.Reshape(Shape{6}, true)
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("bad shape", func(t *testing.T) {
		_, _, err := NewC(Shape{2, 3}, 0).Reshape(Shape{4, -1}, true)
		assert.True(t, errors.Is(err, ErrValueOutOfRange))
		_, _, err = NewC(Shape{2, 3}, 0).Reshape(Shape{-1, -1}, true)
		assert.True(t, errors.Is(err, ErrValueOutOfRange))
	})
}

func TestWithOffset_IsFreshValue(t *testing.T) {
	l := NewC(Shape{2, 3}, 0)
	m := l.WithOffset(10)
	assert.Equal(t, 0, l.Offset())
	assert.Equal(t, 10, m.Offset())
	assert.True(t, l.Shape().Equal(m.Shape()))
}
