package listings_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tinyhouse/internal/app/handlers/listings"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/uow"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/money"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for _, id := range []domainuser.ID{"host", "guest"} {
		u, err := domainuser.NewUser(domainuser.CreateParams{ID: id, Name: string(id)})
		require.NoError(t, err)
		require.NoError(t, store.UsersRepo.Save(context.Background(), u))
	}
	return store
}

func geocoder() *memory.Geocoder {
	return memory.NewGeocoder(map[string]policies.Location{
		"toronto":           {Country: "Canada", Admin: "Ontario", City: "Toronto"},
		"1 king st toronto": {Country: "Canada", Admin: "Ontario", City: "Toronto"},
		"lisbon":            {Country: "Portugal", Admin: "Lisboa", City: "Lisbon"},
		"atlantis":          {},
	})
}

func inUnit(t *testing.T, store *memory.Store) context.Context {
	t.Helper()
	unit, err := store.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func TestHostListingStoresImageAndLocation(t *testing.T) {
	store := seedStore(t)
	images := memory.NewImageStore("http://localhost/images")
	box := memory.NewOutbox(nil)
	h := &listings.HostListingHandler{
		Geocoder:    geocoder(),
		Uploader:    images,
		Outbox:      box,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "l-new" },
	}

	got, err := h.Handle(inUnit(t, store), listings.HostListingCommand{
		ViewerID: "host", Title: "Loft", Image: pngDataURL(), Type: "APARTMENT",
		Address: "1 King St Toronto", Price: 12000, NumOfGuests: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "l-new", got.ID)
	require.Equal(t, "Toronto", got.City)
	require.Contains(t, got.Image, "http://localhost/images/listings/l-new/")

	stored, err := store.ListingsRepo.ByID(context.Background(), "l-new")
	require.NoError(t, err)
	require.Equal(t, int64(0), stored.Version)

	host, err := store.UsersRepo.ByID(context.Background(), "host")
	require.NoError(t, err)
	require.Equal(t, []string{"l-new"}, host.Listings)

	pending := box.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, "listing.created", pending[0].Name)
}

func TestHostListingRejectsBadInput(t *testing.T) {
	store := seedStore(t)
	h := &listings.HostListingHandler{Geocoder: geocoder(), Uploader: memory.NewImageStore("")}
	base := listings.HostListingCommand{
		ViewerID: "host", Title: "Loft", Image: pngDataURL(), Type: "HOUSE",
		Address: "toronto", Price: 100, NumOfGuests: 1,
	}

	unknown := base
	unknown.Address = "nowhere at all"
	_, err := h.Handle(inUnit(t, store), unknown)
	require.ErrorIs(t, err, domainlistings.ErrInvalidAddress)

	badImage := base
	badImage.Image = "not-a-data-url"
	_, err = h.Handle(inUnit(t, store), badImage)
	require.ErrorIs(t, err, listings.ErrInvalidImage)

	badType := base
	badType.Type = "CASTLE"
	_, err = h.Handle(inUnit(t, store), badType)
	require.ErrorIs(t, err, domainlistings.ErrInvalidType)

	_, err = h.Handle(context.Background(), base)
	require.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)
}

func seedListings(t *testing.T, store *memory.Store) {
	t.Helper()
	for _, p := range []domainlistings.CreateListingParams{
		{ID: "a", Host: "host", Title: "A", Type: "HOUSE", Country: "Canada", Admin: "Ontario", City: "Toronto", Price: 300, NumOfGuests: 1, Now: now},
		{ID: "b", Host: "host", Title: "B", Type: "HOUSE", Country: "Canada", Admin: "Ontario", City: "Toronto", Price: 100, NumOfGuests: 1, Now: now},
		{ID: "c", Host: "host", Title: "C", Type: "APARTMENT", Country: "Portugal", Admin: "Lisboa", City: "Lisbon", Price: 200, NumOfGuests: 1, Now: now},
	} {
		l, err := domainlistings.NewListing(p)
		require.NoError(t, err)
		require.NoError(t, store.ListingsRepo.Create(context.Background(), l))
	}
}

func TestSearchListingsFiltersByGeocodedRegion(t *testing.T) {
	store := seedStore(t)
	seedListings(t, store)
	h := &listings.SearchListingsHandler{UoWFactory: store, Geocoder: geocoder()}

	page, err := h.Handle(context.Background(), listings.SearchListingsQuery{Location: "Toronto", Filter: "PRICE_LOW_TO_HIGH"})
	require.NoError(t, err)
	require.Equal(t, "Toronto, Ontario, Canada", page.Region)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "b", page.Result[0].ID)
	require.Equal(t, "a", page.Result[1].ID)

	all, err := h.Handle(context.Background(), listings.SearchListingsQuery{Location: "somewhere unknown", Filter: "PRICE_HIGH_TO_LOW", Limit: 2})
	require.NoError(t, err)
	require.Empty(t, all.Region)
	require.Equal(t, 3, all.Total)
	require.Len(t, all.Result, 2)
	require.Equal(t, "a", all.Result[0].ID)

	_, err = h.Handle(context.Background(), listings.SearchListingsQuery{Location: "atlantis"})
	require.ErrorIs(t, err, listings.ErrNoCountry)
}

func TestGetListingShowsBookingsToHostOnly(t *testing.T) {
	store := seedStore(t)
	seedListings(t, store)
	ctx := context.Background()

	dr, err := daterange.New(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-1", ListingID: "a", TenantID: "guest", Range: dr,
		Total: money.Money{Amount: 600, Currency: "USD"}, ChargeID: "ch_1", CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, store.BookingsRepo.Create(ctx, b))

	l, err := store.ListingsRepo.ByID(ctx, "a")
	require.NoError(t, err)
	l.Bookings = append(l.Bookings, "bk-1")
	require.NoError(t, store.ListingsRepo.Save(ctx, l))

	h := &listings.GetListingHandler{UoWFactory: store}
	asHost, err := h.Handle(ctx, listings.GetListingQuery{ListingID: "a", ViewerID: "host"})
	require.NoError(t, err)
	require.NotNil(t, asHost.Bookings)
	require.Equal(t, 1, asHost.Bookings.Total)
	require.Equal(t, "bk-1", asHost.Bookings.Result[0].ID)

	asGuest, err := h.Handle(ctx, listings.GetListingQuery{ListingID: "a", ViewerID: "guest"})
	require.NoError(t, err)
	require.Nil(t, asGuest.Bookings)

	_, err = h.Handle(ctx, listings.GetListingQuery{ListingID: "missing"})
	require.ErrorIs(t, err, domainlistings.ErrNotFound)
}
