package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tinyhouse/internal/app/uow"
	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

// Store gives record level access without a transaction. Every repository call is
// atomic for its own document, which is what booking admission relies on.
type Store struct {
	ListingsRepo *ListingRepository
	UsersRepo    *UserRepository
	BookingsRepo *BookingRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		ListingsRepo: NewListingRepository(db),
		UsersRepo:    NewUserRepository(db),
		BookingsRepo: NewBookingRepository(db),
	}
}

func (s *Store) Listings() domainlistings.Repository { return s.ListingsRepo }

func (s *Store) Users() domainuser.Repository { return s.UsersRepo }

func (s *Store) Bookings() domainbooking.Repository { return s.BookingsRepo }

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB    *mongo.Database
	Store *Store
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.Store == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadPreference(f.DB.ReadPreference())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{Store: f.Store, session: session}, nil
}

type Unit struct {
	*Store
	session mongo.Session
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory   = Factory{}
	_ uow.Repositories = (*Store)(nil)
)
