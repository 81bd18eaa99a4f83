package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	roomsCollection       = "agg_room"
	bookingsCollection    = "agg_booking"
	nightsCollection      = "room_nights"
	locksCollection       = "room_locks"
	auditCollection       = "booking_audit"
	idempotencyCollection = "app_idempotency"
	sequencesCollection   = "sequences"

	// writeConflictCode is returned when two transactions touch the same document.
	writeConflictCode = 112
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on for correctness.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	return errors.Join(
		ensureRoomIndexes(ctx, c.DB),
		ensureBookingIndexes(ctx, c.DB),
		ensureAuditIndexes(ctx, c.DB),
	)
}

func isWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(writeConflictCode)
}

// duplicateOn reports a duplicate key error raised by the named index.
func duplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
