package mongo

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tinyhouse/internal/domain/calendar"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

// ListingRepository stores listings with their bookings index embedded. Save is a
// compare-and-swap on the version field.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("listings")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "host", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "country", Value: 1}, {Key: "admin", Value: 1}, {Key: "city", Value: 1}, {Key: "price", Value: 1}}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Create(ctx context.Context, listing *domainlistings.Listing) error {
	listing.Version = 0
	_, err := r.col.InsertOne(ctx, newListingDocument(listing))
	if mongo.IsDuplicateKeyError(err) {
		return domainlistings.ErrConcurrentUpdate
	}
	return err
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	doc.Version = listing.Version + 1
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return domainlistings.ErrNotFound
		}
		return domainlistings.ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	for field, value := range map[string]string{"country": opts.Country, "admin": opts.Admin, "city": opts.City} {
		if value != "" {
			filter[field] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
		}
	}
	sort := bson.D{{Key: "created_at", Value: 1}}
	switch opts.Sort {
	case domainlistings.SortPriceLowToHigh:
		sort = bson.D{{Key: "price", Value: 1}, {Key: "created_at", Value: 1}}
	case domainlistings.SortPriceHighToLow:
		sort = bson.D{{Key: "price", Value: -1}, {Key: "created_at", Value: 1}}
	}
	return r.page(ctx, filter, sort, opts.Limit, opts.Offset())
}

func (r *ListingRepository) ByHost(ctx context.Context, host domainuser.ID, limit, offset int) (domainlistings.SearchResult, error) {
	return r.page(ctx, bson.M{"host": string(host)}, bson.D{{Key: "created_at", Value: 1}}, limit, offset)
}

func (r *ListingRepository) page(ctx context.Context, filter bson.M, sort bson.D, limit, offset int) (domainlistings.SearchResult, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	findOpts := options.Find().SetSort(sort).SetSkip(int64(offset))
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cur.Close(ctx)

	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domainlistings.SearchResult{}, err
	}
	items := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		l, err := doc.toAggregate()
		if err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, l)
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

// indexDocument mirrors calendar.Index with string keys: year -> month (0-11) -> day -> true.
type indexDocument map[string]map[string]map[string]bool

type listingDocument struct {
	ID            string        `bson:"_id"`
	Host          string        `bson:"host"`
	Title         string        `bson:"title"`
	Description   string        `bson:"description"`
	Type          string        `bson:"type"`
	Address       string        `bson:"address"`
	Country       string        `bson:"country"`
	Admin         string        `bson:"admin"`
	City          string        `bson:"city"`
	Image         string        `bson:"image"`
	Price         int64         `bson:"price"`
	NumOfGuests   int           `bson:"num_of_guests"`
	BookingsIndex indexDocument `bson:"bookings_index"`
	Bookings      []string      `bson:"bookings"`
	Version       int64         `bson:"version"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	bookings := l.Bookings
	if bookings == nil {
		bookings = []string{}
	}
	return listingDocument{
		ID:            string(l.ID),
		Host:          string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		Type:          string(l.Type),
		Address:       l.Address,
		Country:       l.Country,
		Admin:         l.Admin,
		City:          l.City,
		Image:         l.ImageURL,
		Price:         l.Price,
		NumOfGuests:   l.NumOfGuests,
		BookingsIndex: encodeIndex(l.BookingsIndex),
		Bookings:      bookings,
		Version:       l.Version,
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
	}
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	idx, err := decodeIndex(d.BookingsIndex)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.ID, err)
	}
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Host:          domainuser.ID(d.Host),
		Title:         d.Title,
		Description:   d.Description,
		Type:          domainlistings.ListingType(d.Type),
		Address:       d.Address,
		Country:       d.Country,
		Admin:         d.Admin,
		City:          d.City,
		ImageURL:      d.Image,
		Price:         d.Price,
		NumOfGuests:   d.NumOfGuests,
		BookingsIndex: idx,
		Bookings:      append([]string(nil), d.Bookings...),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}, nil
}

func encodeIndex(idx calendar.Index) indexDocument {
	out := make(indexDocument, len(idx))
	for y, months := range idx {
		mm := make(map[string]map[string]bool, len(months))
		for m, days := range months {
			dd := make(map[string]bool, len(days))
			for d, ok := range days {
				if ok {
					dd[strconv.Itoa(d)] = true
				}
			}
			mm[strconv.Itoa(m)] = dd
		}
		out[strconv.Itoa(y)] = mm
	}
	return out
}

func decodeIndex(doc indexDocument) (calendar.Index, error) {
	idx := calendar.New()
	for ys, months := range doc {
		y, err := strconv.Atoi(ys)
		if err != nil {
			return nil, fmt.Errorf("bookings index year %q: %w", ys, err)
		}
		for ms, days := range months {
			m, err := strconv.Atoi(ms)
			if err != nil || m < 0 || m > 11 {
				return nil, fmt.Errorf("bookings index month %q invalid", ms)
			}
			for ds, ok := range days {
				if !ok {
					continue
				}
				d, err := strconv.Atoi(ds)
				if err != nil {
					return nil, fmt.Errorf("bookings index day %q: %w", ds, err)
				}
				if idx[y] == nil {
					idx[y] = map[int]map[int]bool{}
				}
				if idx[y][m] == nil {
					idx[y][m] = map[int]bool{}
				}
				idx[y][m][d] = true
			}
		}
	}
	return idx, nil
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
