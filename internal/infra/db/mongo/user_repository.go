package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainuser "tinyhouse/internal/domain/user"
)

// UserRepository applies field level updates ($inc, $push, $set) so concurrent
// bookings never overwrite each other's income or booking ids.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	doc := newUserDocument(user)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *UserRepository) AddIncome(ctx context.Context, id domainuser.ID, amount int64) error {
	if amount <= 0 {
		return domainuser.ErrInvalidDelta
	}
	return r.update(ctx, id, bson.M{"$inc": bson.M{"income": amount}})
}

func (r *UserRepository) AppendBooking(ctx context.Context, id domainuser.ID, bookingID string) error {
	return r.update(ctx, id, bson.M{"$push": bson.M{"bookings": bookingID}})
}

func (r *UserRepository) AppendListing(ctx context.Context, id domainuser.ID, listingID string) error {
	return r.update(ctx, id, bson.M{"$push": bson.M{"listings": listingID}})
}

func (r *UserRepository) SetWallet(ctx context.Context, id domainuser.ID, walletID string) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"wallet_id": strings.TrimSpace(walletID)}})
}

func (r *UserRepository) update(ctx context.Context, id domainuser.ID, update bson.M) error {
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now().UTC()
	} else {
		update["$set"] = bson.M{"updated_at": time.Now().UTC()}
	}
	res, err := r.col.UpdateByID(ctx, string(id), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainuser.ErrNotFound
	}
	return nil
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Avatar    string    `bson:"avatar"`
	Contact   string    `bson:"contact"`
	WalletID  string    `bson:"wallet_id"`
	Income    int64     `bson:"income"`
	Bookings  []string  `bson:"bookings"`
	Listings  []string  `bson:"listings"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newUserDocument(u *domainuser.User) userDocument {
	doc := userDocument{
		ID:        string(u.ID),
		Name:      u.Name,
		Avatar:    u.Avatar,
		Contact:   u.Contact,
		WalletID:  u.WalletID,
		Income:    u.Income,
		Bookings:  u.Bookings,
		Listings:  u.Listings,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
	if doc.Bookings == nil {
		doc.Bookings = []string{}
	}
	if doc.Listings == nil {
		doc.Listings = []string{}
	}
	return doc
}

func (d userDocument) toAggregate() *domainuser.User {
	return &domainuser.User{
		ID:        domainuser.ID(d.ID),
		Name:      d.Name,
		Avatar:    d.Avatar,
		Contact:   d.Contact,
		WalletID:  d.WalletID,
		Income:    d.Income,
		Bookings:  append([]string(nil), d.Bookings...),
		Listings:  append([]string(nil), d.Listings...),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

var _ domainuser.Repository = (*UserRepository)(nil)
