package reconciliation

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoQueue stores entries in the booking_reconciliation collection.
type MongoQueue struct {
	col *mongo.Collection
}

func NewMongoQueue(db *mongo.Database) *MongoQueue {
	col := db.Collection("booking_reconciliation")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "occurred_at", Value: 1}},
		Options: options.Index().SetName("status_occurred"),
	})
	return &MongoQueue{col: col}
}

// Enqueue is idempotent on the event id.
func (q *MongoQueue) Enqueue(ctx context.Context, entry Entry) error {
	_, err := q.col.UpdateByID(ctx, entry.EventID, bson.M{"$setOnInsert": entry}, options.Update().SetUpsert(true))
	return err
}

// Pending lists entries still waiting for the sweep, oldest first.
func (q *MongoQueue) Pending(ctx context.Context, limit int64) ([]Entry, error) {
	cur, err := q.col.Find(ctx, bson.M{"status": StatusPending}, options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Queue = (*MongoQueue)(nil)
