package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	t.Run("finding an item returns its first index", func(t *testing.T) {
		require.Equal(t, 1, FindIndex([]string{"a", "b", "b"}, "b"))
		require.Equal(t, -1, FindIndex([]int{1, 2}, 3), "Missing items should yield -1")
	})

	t.Run("clamping keeps values within bounds", func(t *testing.T) {
		require.Equal(t, 0, Clamp(-5, 0, 10))
		require.Equal(t, 10, Clamp(15, 0, 10))
		require.Equal(t, 7, Clamp(7, 0, 10))
	})

	t.Run("sorted keys are ascending", func(t *testing.T) {
		require.Equal(t, []int{1, 2, 3}, SortedKeys(map[int]string{3: "c", 1: "a", 2: "b"}))
	})

	t.Run("ceiling division rounds up", func(t *testing.T) {
		require.Equal(t, 10, CeilDiv(91, 10))
		require.Equal(t, 9, CeilDiv(90, 10))
		require.Equal(t, 1, CeilDiv(1, 10))
		require.Equal(t, 0, CeilDiv(0, 10))
	})
}
