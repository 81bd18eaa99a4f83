package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resortbook/internal/app/audit"
)

// AuditStore is the append-only booking_audit collection keyed by event id.
type AuditStore struct {
	col *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{col: db.Collection(auditCollection)}
}

func ensureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	return err
}

func (s *AuditStore) Append(ctx context.Context, entry audit.Entry) error {
	_, err := s.col.InsertOne(ctx, newAuditDocument(entry))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *AuditStore) List(ctx context.Context, params audit.ListParams) ([]audit.Entry, int, error) {
	filter := bson.M{}
	if params.BookingID != "" {
		filter["booking_id"] = params.BookingID
	}
	if params.RoomID != "" {
		filter["room_id"] = params.RoomID
	}
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	out := make([]audit.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntry())
	}
	return out, int(total), nil
}

type auditDocument struct {
	EventID    string         `bson:"_id"`
	Type       string         `bson:"type"`
	BookingID  string         `bson:"booking_id,omitempty"`
	RoomID     string         `bson:"room_id,omitempty"`
	RequestID  string         `bson:"request_id,omitempty"`
	OccurredAt time.Time      `bson:"occurred_at"`
	RecordedAt time.Time      `bson:"recorded_at"`
	Data       map[string]any `bson:"data"`
}

func newAuditDocument(e audit.Entry) auditDocument {
	return auditDocument{
		EventID:    e.EventID,
		Type:       e.Type,
		BookingID:  e.BookingID,
		RoomID:     e.RoomID,
		RequestID:  e.RequestID,
		OccurredAt: e.OccurredAt.UTC(),
		RecordedAt: e.RecordedAt.UTC(),
		Data:       e.Data,
	}
}

func (d auditDocument) toEntry() audit.Entry {
	return audit.Entry{
		EventID:    d.EventID,
		Type:       d.Type,
		BookingID:  d.BookingID,
		RoomID:     d.RoomID,
		RequestID:  d.RequestID,
		OccurredAt: d.OccurredAt.UTC(),
		RecordedAt: d.RecordedAt.UTC(),
		Data:       d.Data,
	}
}

var _ audit.Store = (*AuditStore)(nil)
