package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainuser "tinyhouse/internal/domain/user"
)

func TestUserFieldUpdatesDoNotLoseConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	host, err := domainuser.NewUser(domainuser.CreateParams{ID: "host", Name: "Host"})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, host))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AddIncome(ctx, "host", 100))
			assert.NoError(t, repo.AppendBooking(ctx, "host", "b"))
		}()
	}
	wg.Wait()

	got, err := repo.ByID(ctx, "host")
	require.NoError(t, err)
	require.Equal(t, int64(5000), got.Income)
	require.Len(t, got.Bookings, 50)
}

func TestUserUpdatesOnMissingUser(t *testing.T) {
	repo := NewUserRepository()
	require.ErrorIs(t, repo.AddIncome(context.Background(), "ghost", 1), domainuser.ErrNotFound)
	require.ErrorIs(t, repo.SetWallet(context.Background(), "ghost", "acct"), domainuser.ErrNotFound)
}
