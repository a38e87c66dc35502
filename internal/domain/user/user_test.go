package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUserTrimsAndDefaults(t *testing.T) {
	u, err := NewUser(CreateParams{ID: " u-1 ", Name: " Ana ", Contact: " ana@example.com "})
	require.NoError(t, err)
	require.Equal(t, ID("u-1"), u.ID)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, "ana@example.com", u.Contact)
	require.False(t, u.HasWallet())
	require.False(t, u.CreatedAt.IsZero())
}

func TestNewUserRequiresIDAndName(t *testing.T) {
	_, err := NewUser(CreateParams{Name: "x"})
	require.ErrorIs(t, err, ErrIDRequired)
	_, err = NewUser(CreateParams{ID: "u"})
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestCloneCopiesSlices(t *testing.T) {
	u := &User{ID: "u", Bookings: []string{"b1"}, CreatedAt: time.Now()}
	c := u.Clone()
	c.Bookings[0] = "changed"
	require.Equal(t, "b1", u.Bookings[0])
}
