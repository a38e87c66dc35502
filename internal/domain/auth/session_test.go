package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/domain/auth"
)

func TestNewSessionValidates(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	s, err := auth.NewSession(auth.CreateSessionParams{Token: " tok-1234 ", UserID: "u1", TTL: time.Hour, Now: now})
	require.NoError(t, err)
	require.Equal(t, auth.Token("tok-1234"), s.Token)
	require.Equal(t, time.UTC, s.CreatedAt.Location())
	require.Equal(t, time.Hour, s.Remaining(now))
	require.False(t, s.Expired(now.Add(59*time.Minute)))
	require.True(t, s.Expired(now.Add(time.Hour)))
	require.Zero(t, s.Remaining(now.Add(2*time.Hour)))

	_, err = auth.NewSession(auth.CreateSessionParams{UserID: "u1", TTL: time.Hour})
	require.ErrorIs(t, err, auth.ErrTokenRequired)
	_, err = auth.NewSession(auth.CreateSessionParams{Token: "t", TTL: time.Hour})
	require.ErrorIs(t, err, auth.ErrUserRequired)
	_, err = auth.NewSession(auth.CreateSessionParams{Token: "t", UserID: "u1"})
	require.ErrorIs(t, err, auth.ErrTTLInvalid)
}

func TestTokenStringIsMasked(t *testing.T) {
	require.Equal(t, "****5678", auth.Token("secret-5678").String())
	require.Equal(t, "****", auth.Token("abc").String())
}
