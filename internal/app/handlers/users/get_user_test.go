package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/app/handlers/users"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

func TestGetUserHidesPrivateFieldsFromOthers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []domainuser.ID{"host", "other"} {
		u, err := domainuser.NewUser(domainuser.CreateParams{ID: id, Name: string(id), WalletID: "acct_" + string(id), CreatedAt: now})
		require.NoError(t, err)
		require.NoError(t, store.UsersRepo.Save(ctx, u))
	}
	require.NoError(t, store.UsersRepo.AddIncome(ctx, "host", 4200))
	require.NoError(t, store.UsersRepo.AppendBooking(ctx, "host", "bk-missing"))
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "l-1", Host: "host", Title: "Cabin", Type: "HOUSE", Country: "Canada", Price: 100, NumOfGuests: 1, Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, store.ListingsRepo.Create(ctx, l))

	h := &users.GetUserHandler{UoWFactory: store}

	self, err := h.Handle(ctx, users.GetUserQuery{UserID: "host", ViewerID: "host"})
	require.NoError(t, err)
	require.NotNil(t, self.Income)
	require.Equal(t, int64(4200), *self.Income)
	require.NotNil(t, self.Bookings)
	require.Equal(t, 1, self.Bookings.Total)
	require.Equal(t, 1, self.Listings.Total)
	require.True(t, self.HasWallet)

	public, err := h.Handle(ctx, users.GetUserQuery{UserID: "host", ViewerID: "other"})
	require.NoError(t, err)
	require.Nil(t, public.Income)
	require.Nil(t, public.Bookings)
	require.Equal(t, "l-1", public.Listings.Result[0].ID)

	_, err = h.Handle(ctx, users.GetUserQuery{UserID: "ghost"})
	require.ErrorIs(t, err, domainuser.ErrNotFound)
}
