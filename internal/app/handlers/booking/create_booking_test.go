package booking_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bookingapp "tinyhouse/internal/app/handlers/booking"
	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/calendar"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/money"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/storage/memory"
)

var clock = func() time.Time { return time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC) }

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store    *memory.Store
	payments *memory.PaymentGateway
	outbox   *memory.Outbox
	handler  *bookingapp.CreateBookingHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, u := range []domainuser.CreateParams{
		{ID: "host", Name: "Host", WalletID: "acct_host"},
		{ID: "tenant", Name: "Tenant"},
		{ID: "tenant-2", Name: "Second Tenant"},
		{ID: "broke-host", Name: "No Wallet"},
	} {
		user, err := domainuser.NewUser(u)
		require.NoError(t, err)
		require.NoError(t, store.UsersRepo.Save(ctx, user))
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "l-1", Host: "host", Title: "Cabin", Type: "HOUSE",
		Country: "Canada", Admin: "Ontario", City: "Toronto",
		Price: 10000, NumOfGuests: 2, Now: clock(),
	})
	require.NoError(t, err)
	require.NoError(t, store.ListingsRepo.Create(ctx, listing))

	payments := memory.NewPaymentGateway()
	box := memory.NewOutbox(nil)
	return &fixture{
		store:    store,
		payments: payments,
		outbox:   box,
		handler: &bookingapp.CreateBookingHandler{
			Store:    store,
			Payments: payments,
			Outbox:   box,
			Clock:    clock,
		},
	}
}

func cmd(viewer string, in, out time.Time) bookingapp.CreateBookingCommand {
	return bookingapp.CreateBookingCommand{ListingID: "l-1", ViewerID: viewer, Source: "tok_visa", CheckIn: in, CheckOut: out}
}

func (f *fixture) listing(t *testing.T) *domainlistings.Listing {
	t.Helper()
	l, err := f.store.ListingsRepo.ByID(context.Background(), "l-1")
	require.NoError(t, err)
	return l
}

func (f *fixture) user(t *testing.T, id domainuser.ID) *domainuser.User {
	t.Helper()
	u, err := f.store.UsersRepo.ByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) assertUntouched(t *testing.T) {
	t.Helper()
	require.Empty(t, f.payments.Charges())
	require.Zero(t, f.store.BookingsRepo.Len())
	require.Zero(t, f.listing(t).BookingsIndex.Len())
	require.Zero(t, f.user(t, "host").Income)
	require.Empty(t, f.user(t, "tenant").Bookings)
}

func TestCreateBookingChargesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.handler.Handle(ctx, cmd("tenant", day(3, 1), day(3, 3)))
	require.NoError(t, err)
	require.Equal(t, int64(30000), res.Total)
	require.Equal(t, "USD", res.Currency)
	require.Equal(t, "2024-03-01", res.CheckIn)
	require.Equal(t, "2024-03-03", res.CheckOut)

	charges := f.payments.Charges()
	require.Len(t, charges, 1)
	require.Equal(t, int64(30000), charges[0].Amount.Amount)
	require.Equal(t, "acct_host", f.payments.Destination(charges[0].ID))
	require.Equal(t, charges[0].ID, res.ChargeID)

	stored, err := f.store.BookingsRepo.ByID(ctx, domainbooking.BookingID(res.ID))
	require.NoError(t, err)
	require.Equal(t, domainuser.ID("tenant"), stored.TenantID)

	listing := f.listing(t)
	require.Equal(t, calendar.FromDays(day(3, 1), day(3, 2), day(3, 3)).Days(), listing.BookingsIndex.Days())
	require.Equal(t, []string{res.ID}, listing.Bookings)
	require.Equal(t, int64(1), listing.Version)
	require.Equal(t, int64(30000), f.user(t, "host").Income)
	require.Equal(t, []string{res.ID}, f.user(t, "tenant").Bookings)

	pending := f.outbox.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, "booking.created", pending[0].Name)
}

func TestCreateBookingOverlapConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.handler.Handle(ctx, cmd("tenant", day(3, 1), day(3, 3)))
	require.NoError(t, err)
	before := f.listing(t)

	_, err = f.handler.Handle(ctx, cmd("tenant-2", day(3, 3), day(3, 5)))
	require.ErrorIs(t, err, calendar.ErrConflict)
	var conflict *calendar.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, day(3, 3), conflict.Date)

	require.Len(t, f.payments.Charges(), 1)
	after := f.listing(t)
	require.Equal(t, before.BookingsIndex.Days(), after.BookingsIndex.Days())
	require.Equal(t, before.Version, after.Version)
	require.Empty(t, f.user(t, "tenant-2").Bookings)
}

func TestCreateBookingRejectionsHaveNoSideEffects(t *testing.T) {
	cases := []struct {
		name string
		cmd  bookingapp.CreateBookingCommand
		want error
	}{
		{"self booking", cmd("host", day(3, 1), day(3, 3)), domainbooking.ErrSelfBookingForbidden},
		{"anonymous", cmd("", day(3, 1), day(3, 3)), domainbooking.ErrUnauthenticated},
		{"window", cmd("tenant", day(6, 1), day(6, 3)), domainbooking.ErrWindowExceeded},
		{"reversed", cmd("tenant", day(3, 3), day(3, 1)), domainbooking.ErrInvalidRange},
		{"unknown tenant", cmd("ghost", day(3, 1), day(3, 3)), domainbooking.ErrNotFound},
		{"declined", bookingapp.CreateBookingCommand{ListingID: "l-1", ViewerID: "tenant", Source: memory.DeclinedSource, CheckIn: day(3, 1), CheckOut: day(3, 3)}, domainbooking.ErrPaymentDeclined},
		{"missing listing", bookingapp.CreateBookingCommand{ListingID: "nope", ViewerID: "tenant", Source: "tok", CheckIn: day(3, 1), CheckOut: day(3, 3)}, domainbooking.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.handler.Handle(context.Background(), tc.cmd)
			require.ErrorIs(t, err, tc.want)
			require.NotErrorIs(t, err, domainbooking.ErrPersistenceInconsistent)
			f.assertUntouched(t)
		})
	}
}

func TestCreateBookingHostWithoutWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "l-2", Host: "broke-host", Title: "Loft", Type: "APARTMENT",
		Country: "Canada", Admin: "Ontario", City: "Toronto", Price: 5000, NumOfGuests: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.ListingsRepo.Create(ctx, listing))

	c := cmd("tenant", day(3, 1), day(3, 3))
	c.ListingID = "l-2"
	_, err = f.handler.Handle(ctx, c)
	require.ErrorIs(t, err, domainbooking.ErrHostNotPayable)
	require.Empty(t, f.payments.Charges())
}

func TestCreateBookingTotalOverflowIsDeclinedBeforeCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "l-3", Host: "host", Title: "Palace", Type: "HOUSE",
		Country: "Canada", Admin: "Ontario", City: "Toronto", Price: math.MaxInt64 / 2, NumOfGuests: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.ListingsRepo.Create(ctx, listing))

	c := cmd("tenant", day(3, 1), day(3, 3))
	c.ListingID = "l-3"
	_, err = f.handler.Handle(ctx, c)
	require.ErrorIs(t, err, domainbooking.ErrPaymentDeclined)
	require.ErrorIs(t, err, money.ErrOverflow)
	require.Empty(t, f.payments.Charges())
	stored, err := f.store.ListingsRepo.ByID(ctx, "l-3")
	require.NoError(t, err)
	require.Zero(t, stored.BookingsIndex.Len())
}

func TestCreateBookingCancelledBeforeChargeHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.handler.Handle(ctx, cmd("tenant", day(3, 1), day(3, 3)))
	require.ErrorIs(t, err, context.Canceled)
	f.assertUntouched(t)
}

func TestConcurrentDisjointBookingsBothSucceed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	ranges := [][2]time.Time{{day(3, 1), day(3, 3)}, {day(3, 10), day(3, 12)}}
	tenants := []string{"tenant", "tenant-2"}
	for i := range ranges {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.handler.Handle(ctx, cmd(tenants[i], ranges[i][0], ranges[i][1]))
		}(i)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	listing := f.listing(t)
	require.Equal(t, 6, listing.BookingsIndex.Len())
	require.Len(t, listing.Bookings, 2)
	require.Equal(t, int64(60000), f.user(t, "host").Income)
}

type hookedListings struct {
	domainlistings.Repository
	beforeSave func(ctx context.Context, l *domainlistings.Listing) error
}

func (r *hookedListings) Save(ctx context.Context, l *domainlistings.Listing) error {
	if r.beforeSave != nil {
		if err := r.beforeSave(ctx, l); err != nil {
			return err
		}
	}
	return r.Repository.Save(ctx, l)
}

type hookedUsers struct {
	domainuser.Repository
	addIncome func(ctx context.Context, id domainuser.ID, amount int64) error
}

func (r *hookedUsers) AddIncome(ctx context.Context, id domainuser.ID, amount int64) error {
	if r.addIncome != nil {
		return r.addIncome(ctx, id, amount)
	}
	return r.Repository.AddIncome(ctx, id, amount)
}

type hookedStore struct {
	*memory.Store
	listings domainlistings.Repository
	users    domainuser.Repository
}

func (s hookedStore) Listings() domainlistings.Repository {
	if s.listings != nil {
		return s.listings
	}
	return s.Store.Listings()
}

func (s hookedStore) Users() domainuser.Repository {
	if s.users != nil {
		return s.users
	}
	return s.Store.Users()
}

func TestCreateBookingContentionAfterChargeIsInconsistent(t *testing.T) {
	f := newFixture(t)
	saves := 0
	f.handler.Store = hookedStore{Store: f.store, listings: &hookedListings{
		Repository: f.store.ListingsRepo,
		beforeSave: func(context.Context, *domainlistings.Listing) error {
			saves++
			return domainlistings.ErrConcurrentUpdate
		},
	}}

	_, err := f.handler.Handle(context.Background(), cmd("tenant", day(3, 1), day(3, 3)))
	require.ErrorIs(t, err, domainbooking.ErrPersistenceInconsistent)
	require.ErrorIs(t, err, domainbooking.ErrContention)
	var inc *domainbooking.InconsistencyError
	require.True(t, errors.As(err, &inc))
	require.Equal(t, domainbooking.StepListingIndex, inc.Step)
	require.NotEmpty(t, inc.ChargeID)
	require.Equal(t, bookingapp.DefaultMaxAttempts, saves)

	require.Len(t, f.payments.Charges(), 1)
	require.Equal(t, 1, f.store.BookingsRepo.Len())
	require.Zero(t, f.listing(t).BookingsIndex.Len())

	names := []string{}
	for _, rec := range f.outbox.Pending() {
		names = append(names, rec.Name)
	}
	require.Equal(t, []string{"booking.persistence_inconsistent"}, names)
}

func TestCreateBookingRetriesAndDetectsLateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raced := false
	f.handler.Store = hookedStore{Store: f.store, listings: &hookedListings{
		Repository: f.store.ListingsRepo,
		beforeSave: func(ctx context.Context, _ *domainlistings.Listing) error {
			if raced {
				return nil
			}
			raced = true
			rival, err := f.store.ListingsRepo.ByID(ctx, "l-1")
			if err != nil {
				return err
			}
			idx, err := calendar.Reserve(rival.BookingsIndex, day(3, 2), day(3, 2))
			if err != nil {
				return err
			}
			rival.RecordReservation(idx, "rival", clock())
			return f.store.ListingsRepo.Save(ctx, rival)
		},
	}}

	_, err := f.handler.Handle(ctx, cmd("tenant", day(3, 1), day(3, 3)))
	require.ErrorIs(t, err, domainbooking.ErrPersistenceInconsistent)
	require.ErrorIs(t, err, calendar.ErrConflict)
	require.Equal(t, []string{"rival"}, f.listing(t).Bookings)
}

func TestCreateBookingRetriesDisjointRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raced := false
	f.handler.Store = hookedStore{Store: f.store, listings: &hookedListings{
		Repository: f.store.ListingsRepo,
		beforeSave: func(ctx context.Context, _ *domainlistings.Listing) error {
			if raced {
				return nil
			}
			raced = true
			rival, err := f.store.ListingsRepo.ByID(ctx, "l-1")
			if err != nil {
				return err
			}
			idx, err := calendar.Reserve(rival.BookingsIndex, day(3, 20), day(3, 21))
			if err != nil {
				return err
			}
			rival.RecordReservation(idx, "rival", clock())
			return f.store.ListingsRepo.Save(ctx, rival)
		},
	}}

	res, err := f.handler.Handle(ctx, cmd("tenant", day(3, 1), day(3, 3)))
	require.NoError(t, err)
	listing := f.listing(t)
	require.Equal(t, []string{"rival", res.ID}, listing.Bookings)
	require.Equal(t, 5, listing.BookingsIndex.Len())
	require.Equal(t, int64(2), listing.Version)
}

func TestCreateBookingHostIncomeFailureIsInconsistent(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("write timeout")
	f.handler.Store = hookedStore{Store: f.store, users: &hookedUsers{
		Repository: f.store.UsersRepo,
		addIncome:  func(context.Context, domainuser.ID, int64) error { return boom },
	}}

	_, err := f.handler.Handle(context.Background(), cmd("tenant", day(3, 1), day(3, 3)))
	require.ErrorIs(t, err, domainbooking.ErrPersistenceInconsistent)
	require.ErrorIs(t, err, boom)
	var inc *domainbooking.InconsistencyError
	require.True(t, errors.As(err, &inc))
	require.Equal(t, domainbooking.StepHostIncome, inc.Step)

	require.Equal(t, 1, f.store.BookingsRepo.Len())
	require.Empty(t, f.user(t, "tenant").Bookings)
	require.Zero(t, f.listing(t).BookingsIndex.Len())
}

func TestCreateBookingIdempotencyKeyIsScopedToViewer(t *testing.T) {
	a := bookingapp.CreateBookingCommand{ViewerID: "u1", IdempotencyKeyV: "k"}
	b := bookingapp.CreateBookingCommand{ViewerID: "u2", IdempotencyKeyV: "k"}
	require.NotEqual(t, a.IdempotencyKey(), b.IdempotencyKey())
	require.Empty(t, bookingapp.CreateBookingCommand{ViewerID: "u1"}.IdempotencyKey())
}
