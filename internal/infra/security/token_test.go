package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomTokensAreUniqueAndURLSafe(t *testing.T) {
	gen := RandomTokenGenerator{Size: 16}
	a, err := gen.NewToken()
	require.NoError(t, err)
	b, err := gen.NewToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Len(t, a, 22)
	require.NotContains(t, a, "+")
	require.NotContains(t, a, "/")
}

func TestDigestIsStable(t *testing.T) {
	require.Equal(t, Digest("secret"), Digest("secret"))
	require.NotEqual(t, Digest("secret"), Digest("Secret"))
	require.Len(t, Digest("secret"), 64)
}
