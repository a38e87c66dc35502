package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "tinyhouse/internal/domain/booking"
	domainlistings "tinyhouse/internal/domain/listings"
	"tinyhouse/internal/domain/shared/daterange"
	"tinyhouse/internal/domain/shared/money"
	domainuser "tinyhouse/internal/domain/user"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "listing", Value: 1}}})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ByIDs returns the bookings found, in the order of ids. Unknown ids are skipped.
func (r *BookingRepository) ByIDs(ctx context.Context, ids []domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	byID := make(map[string]bookingDocument, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, id := range raw {
		if doc, ok := byID[id]; ok {
			out = append(out, doc.toAggregate())
		}
	}
	return out, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	_, err := r.col.InsertOne(ctx, newBookingDocument(b))
	if mongo.IsDuplicateKeyError(err) {
		return domainbooking.ErrDuplicate
	}
	return err
}

type bookingDocument struct {
	ID        string    `bson:"_id"`
	ListingID string    `bson:"listing"`
	TenantID  string    `bson:"tenant"`
	CheckIn   time.Time `bson:"check_in"`
	CheckOut  time.Time `bson:"check_out"`
	Total     int64     `bson:"total"`
	Currency  string    `bson:"currency"`
	ChargeID  string    `bson:"charge_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		TenantID:  string(b.TenantID),
		CheckIn:   b.Range.CheckIn.UTC(),
		CheckOut:  b.Range.CheckOut.UTC(),
		Total:     b.Total.Amount,
		Currency:  b.Total.Currency,
		ChargeID:  b.ChargeID,
		CreatedAt: b.CreatedAt.UTC(),
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: domainlistings.ListingID(d.ListingID),
		TenantID:  domainuser.ID(d.TenantID),
		Range:     daterange.DateRange{CheckIn: d.CheckIn.UTC(), CheckOut: d.CheckOut.UTC()},
		Total:     money.Money{Amount: d.Total, Currency: d.Currency},
		ChargeID:  d.ChargeID,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
