package uow

import (
	"context"

	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

// Repositories groups the record accessors shared by units of work and plain stores.
type Repositories interface {
	Listings() domainlistings.Repository
	Users() domainuser.Repository
	Bookings() domainbooking.Repository
}

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Repositories

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
