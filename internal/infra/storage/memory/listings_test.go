package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainlistings "tinyhouse/internal/domain/listings"
)

func newListing(t *testing.T, id string, price int64, city string) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          domainlistings.ListingID(id),
		Host:        "host-1",
		Title:       "Listing " + id,
		Type:        "APARTMENT",
		Country:     "Canada",
		Admin:       "Ontario",
		City:        city,
		Price:       price,
		NumOfGuests: 2,
		Now:         time.Now(),
	})
	require.NoError(t, err)
	return l
}

func TestListingSaveIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	require.NoError(t, repo.Create(ctx, newListing(t, "l-1", 100, "Toronto")))

	first, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)

	first.Bookings = append(first.Bookings, "b-1")
	require.NoError(t, repo.Save(ctx, first))
	require.Equal(t, int64(1), first.Version)

	second.Bookings = append(second.Bookings, "b-2")
	require.ErrorIs(t, repo.Save(ctx, second), domainlistings.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)
	require.Equal(t, []string{"b-1"}, stored.Bookings)
}

func TestListingReadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	require.NoError(t, repo.Create(ctx, newListing(t, "l-1", 100, "Toronto")))

	got, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)
	got.Title = "mutated"
	got.Bookings = append(got.Bookings, "x")

	again, err := repo.ByID(ctx, "l-1")
	require.NoError(t, err)
	require.Equal(t, "Listing l-1", again.Title)
	require.Empty(t, again.Bookings)
}

func TestListingSearchFiltersSortsAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository()
	require.NoError(t, repo.Create(ctx, newListing(t, "a", 300, "Toronto")))
	require.NoError(t, repo.Create(ctx, newListing(t, "b", 100, "Toronto")))
	require.NoError(t, repo.Create(ctx, newListing(t, "c", 200, "Toronto")))
	require.NoError(t, repo.Create(ctx, newListing(t, "d", 50, "Ottawa")))

	res, err := repo.Search(ctx, domainlistings.SearchParams{City: "toronto", Sort: domainlistings.SortPriceHighToLow, Limit: 2, Page: 1})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, int64(300), res.Items[0].Price)
	require.Equal(t, int64(200), res.Items[1].Price)

	res, err = repo.Search(ctx, domainlistings.SearchParams{City: "toronto", Sort: domainlistings.SortPriceHighToLow, Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, int64(100), res.Items[0].Price)

	res, err = repo.Search(ctx, domainlistings.SearchParams{Sort: domainlistings.SortPriceLowToHigh})
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)
	require.Equal(t, int64(50), res.Items[0].Price)
}
