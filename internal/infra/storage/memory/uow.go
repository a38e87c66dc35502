package memory

import (
	"context"
	"errors"

	"tinyhouse/internal/app/uow"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

// Store bundles the in-memory repositories. It serves both as the record level
// reservation store and as the factory for lightweight units of work.
type Store struct {
	ListingsRepo *ListingRepository
	UsersRepo    *UserRepository
	BookingsRepo *BookingRepository
}

func NewStore() *Store {
	return &Store{
		ListingsRepo: NewListingRepository(),
		UsersRepo:    NewUserRepository(),
		BookingsRepo: NewBookingRepository(),
	}
}

func (s *Store) Listings() domainlistings.Repository { return s.ListingsRepo }

func (s *Store) Users() domainuser.Repository { return s.UsersRepo }

func (s *Store) Bookings() domainbooking.Repository { return s.BookingsRepo }

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if s == nil || s.ListingsRepo == nil || s.UsersRepo == nil || s.BookingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{Store: s}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	*Store
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var (
	_ uow.UoWFactory   = (*Store)(nil)
	_ uow.Repositories = (*Store)(nil)
)
