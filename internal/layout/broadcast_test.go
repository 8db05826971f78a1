package layout

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastShape(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Shape
		want   Shape
		ka, kb []BroadcastKind
	}{
		{"same", Shape{3, 5}, Shape{3, 5}, Shape{3, 5},
			[]BroadcastKind{Preserve, Preserve}, []BroadcastKind{Preserve, Preserve}},
		{"upcast right", Shape{3, 1}, Shape{3, 5}, Shape{3, 5},
			[]BroadcastKind{Preserve, Upcast}, []BroadcastKind{Preserve, Preserve}},
		{"expand left", Shape{5}, Shape{3, 5}, Shape{3, 5},
			[]BroadcastKind{Expand, Preserve}, []BroadcastKind{Preserve, Preserve}},
		{"both", Shape{4, 1, 5}, Shape{3, 1}, Shape{4, 3, 5},
			[]BroadcastKind{Preserve, Upcast, Preserve}, []BroadcastKind{Expand, Preserve, Upcast}},
		{"scalar", Shape{}, Shape{2, 2}, Shape{2, 2},
			[]BroadcastKind{Expand, Expand}, []BroadcastKind{Preserve, Preserve}},
		{"zero", Shape{0, 3}, Shape{1, 3}, Shape{0, 3},
			[]BroadcastKind{Preserve, Preserve}, []BroadcastKind{Upcast, Preserve}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, ka, kb, err := BroadcastShape(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape)
			assert.Equal(t, tt.ka, ka)
			assert.Equal(t, tt.kb, kb)

			// The shape is symmetric; the classification swaps sides.
			shape2, kb2, ka2, err := BroadcastShape(tt.b, tt.a)
			require.NoError(t, err)
			assert.Equal(t, shape, shape2)
			assert.Equal(t, ka, ka2)
			assert.Equal(t, kb, kb2)
		})
	}
}

func TestBroadcastShape_Mismatch(t *testing.T) {
	_, _, _, err := BroadcastShape(Shape{3, 4}, Shape{3, 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBroadcastMismatch))
}

func TestBroadcastLayout(t *testing.T) {
	a := NewC(Shape{3, 1}, 2)
	b := NewC(Shape{4}, 0)

	ba, bb, err := BroadcastLayout(a, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, ba.Shape())
	assert.Equal(t, Stride{1, 0}, ba.Stride())
	assert.Equal(t, 2, ba.Offset())
	assert.Equal(t, Shape{3, 4}, bb.Shape())
	assert.Equal(t, Stride{0, 1}, bb.Stride())

	pos, err := ba.Index(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, pos)
}

func TestBroadcastLayoutToFirst(t *testing.T) {
	target := NewC(Shape{2, 3}, 0)

	got, err := BroadcastLayoutToFirst(target, NewC(Shape{3}, 0))
	require.NoError(t, err)
	assert.Equal(t, Stride{0, 1}, got.Stride())

	_, err = BroadcastLayoutToFirst(NewC(Shape{1, 3}, 0), NewC(Shape{2, 3}, 0))
	assert.True(t, errors.Is(err, ErrBroadcastMismatch))

	_, err = BroadcastLayoutToFirst(target, NewC(Shape{4, 2, 3}, 0))
	assert.True(t, errors.Is(err, ErrBroadcastMismatch))
}

func TestBroadcastLayouts(t *testing.T) {
	out, err := BroadcastLayouts(NewC(Shape{2, 1, 4}, 0), NewC(Shape{3, 1}, 0), NewC(Shape{}, 9))
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, l := range out {
		assert.Equal(t, Shape{2, 3, 4}, l.Shape())
	}
	assert.Equal(t, Stride{0, 0, 0}, out[2].Stride())
	assert.Equal(t, 9, out[2].Offset())

	_, err = BroadcastLayouts(NewC(Shape{2}, 0), NewC(Shape{3}, 0))
	assert.True(t, errors.Is(err, ErrBroadcastMismatch))
}
