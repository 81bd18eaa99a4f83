// Package inbox deduplicates booking events delivered to the audit consumer.
package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resortbook/internal/app/audit"
)

const (
	collection       = "audit_inbox"
	defaultRetention = 30 * 24 * time.Hour
)

// Store marks event ids per consumer group. Marks expire after the retention window,
// well past any Kafka redelivery of the same event.
type Store struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

func NewStore(ctx context.Context, db *mongo.Database, consumer string, retention time.Duration) (*Store, error) {
	if retention <= 0 {
		retention = defaultRetention
	}
	col := db.Collection(collection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "consumer", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_consumer_event"),
		},
		{
			Keys:    bson.D{{Key: "received_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())).SetName("ttl_received_at"),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{col: col, consumer: consumer, now: time.Now}, nil
}

// Seen inserts the mark and reports true when it was already there.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, bson.M{
		"consumer":    s.consumer,
		"event_id":    eventID,
		"received_at": s.now().UTC(),
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

// Forget lets a delivery whose projection failed be handled again.
func (s *Store) Forget(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"consumer": s.consumer, "event_id": eventID})
	return err
}

var _ audit.Inbox = (*Store)(nil)
