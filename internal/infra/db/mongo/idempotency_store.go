package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tinyhouse/internal/app/middleware"
)

const (
	idempotencyCollection = "booking_idempotency"
	defaultIdempotencyTTL = 7 * 24 * time.Hour
)

// IdempotencyStore keeps replayable booking outcomes keyed by the client's Idempotency-Key.
// Records expire through a TTL index; Get also hides records past ttl because the
// TTL monitor only runs once a minute.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(db *mongo.Database, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	col := db.Collection(idempotencyCollection)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
	})
	return &IdempotencyStore{col: col, ttl: ttl, now: time.Now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	filter := bson.M{"_id": key, "created_at": bson.M{"$gt": s.now().UTC().Add(-s.ttl)}}
	var doc idempotencyDocument
	err := s.col.FindOne(ctx, filter).Decode(&doc)
	switch {
	case isNoDocuments(err):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        doc.Key,
		Payload:    doc.Payload,
		Error:      doc.Error,
		ErrorCode:  doc.ErrorCode,
		Details:    doc.Details,
		OccurredAt: doc.OccurredAt,
	}, true, nil
}

// Save keeps the first outcome stored under a key; later saves for the same key are ignored.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorCode:  rec.ErrorCode,
		Details:    rec.Details,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  s.now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, rec.Key, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	Key        string            `bson:"_id"`
	Payload    []byte            `bson:"payload,omitempty"`
	Error      string            `bson:"error,omitempty"`
	ErrorCode  string            `bson:"error_code,omitempty"`
	Details    map[string]string `bson:"details,omitempty"`
	OccurredAt time.Time         `bson:"occurred_at"`
	CreatedAt  time.Time         `bson:"created_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
