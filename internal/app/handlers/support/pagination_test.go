package support

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageOf(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	require.Equal(t, []string{"a", "b"}, PageOf(ids, 2, 1))
	require.Equal(t, []string{"e"}, PageOf(ids, 2, 3))
	require.Nil(t, PageOf(ids, 2, 4))
	require.Equal(t, ids, PageOf(ids, 0, 0))
}

func TestNormalizePage(t *testing.T) {
	limit, page := NormalizePage(1000, -3)
	require.Equal(t, MaxPageLimit, limit)
	require.Equal(t, 1, page)
}
