package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapes_Geometry(t *testing.T) {
	require.InDelta(t, 12.566, Circle{Radius: 2}.Area(), 0.001)
	require.InDelta(t, 12.566, Circle{Radius: 2}.Perimeter(), 0.001)
	require.InDelta(t, 9.0, Square{Side: 3}.Area(), 0.001)
	require.InDelta(t, 12.0, Square{Side: 3}.Perimeter(), 0.001)
	require.InDelta(t, 6.0, Rect{Width: 2, Height: 3}.Area(), 0.001)
	require.InDelta(t, 10.0, Rect{Width: 2, Height: 3}.Perimeter(), 0.001)
}

func TestIsNumber(t *testing.T) {
	require.True(t, isNumber(1))
	require.True(t, isNumber(int64(1)))
	require.True(t, isNumber(1.5))
	require.False(t, isNumber("1"))
	require.False(t, isNumber(nil))
}

func TestIsPositive(t *testing.T) {
	require.True(t, isPositive(3))
	require.True(t, isPositive(0.5))
	require.False(t, isPositive(0))
	require.False(t, isPositive(-2))
	require.False(t, isPositive("3"))
}

func TestConstraintRefs_CoverEveryTableName(t *testing.T) {
	// Every impl referenced from the shipped tables must resolve.
	for _, name := range []string{
		"area-circle", "area-shape", "perimeter-shape",
		"scale-circle", "scale-square", "scale-rect",
		"describe-shape", "describe-positive",
	} {
		require.Contains(t, implRefs, name)
	}
	for _, name := range []string{"circle", "square", "rect", "~shape", "float", "positive"} {
		require.Contains(t, constraintRefs, name)
	}
}
