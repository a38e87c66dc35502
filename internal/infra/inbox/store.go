package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "event_inbox"
	retention      = 30 * 24 * time.Hour
)

// Store deduplicates broker deliveries for one consumer. A mark is a document whose
// _id combines consumer and event id; marks expire after the retention window,
// which is longer than any topic retention we run with.
type Store struct {
	col      *mongo.Collection
	consumer string
}

func NewStore(db *mongo.Database, consumer string) *Store {
	col := db.Collection(collectionName)
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "received_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)),
	})
	return &Store{col: col, consumer: consumer}
}

func (s *Store) markID(eventID string) string {
	return s.consumer + ":" + eventID
}

// Seen records eventID and reports whether this consumer had already recorded it.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, bson.M{
		"_id":         s.markID(eventID),
		"consumer":    s.consumer,
		"event_id":    eventID,
		"received_at": time.Now().UTC(),
	})
	switch {
	case err == nil:
		return false, nil
	case mongo.IsDuplicateKeyError(err):
		return true, nil
	default:
		return false, err
	}
}

// Forget drops the mark so a delivery whose handling failed is processed on redelivery.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": s.markID(eventID)})
	return err
}
