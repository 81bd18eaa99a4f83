package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrLockTimeout = errors.New("mongo: room lock not acquired")

// RoomLeaseLocker serializes admissions per room across processes. A lease is a
// document in room_locks keyed by room id; it expires after TTL so a crashed holder
// cannot block the room forever.
type RoomLeaseLocker struct {
	col   *mongo.Collection
	TTL   time.Duration
	Retry time.Duration
	Owner string
}

func NewRoomLeaseLocker(db *mongo.Database, ttl time.Duration) *RoomLeaseLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RoomLeaseLocker{
		col:   db.Collection(locksCollection),
		TTL:   ttl,
		Retry: 25 * time.Millisecond,
		Owner: uuid.NewString(),
	}
}

// Lock blocks until the lease on roomID is taken or ctx is done. Lease writes never
// join a session carried by ctx; they must be visible to other processes at once.
func (l *RoomLeaseLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	lockCtx, stop := detach(ctx)
	defer stop()

	token := l.Owner + ":" + uuid.NewString()
	for {
		acquired, err := l.tryAcquire(lockCtx, roomID, token)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() { l.release(roomID, token) }, nil
		}
		select {
		case <-lockCtx.Done():
			return nil, errors.Join(ErrLockTimeout, lockCtx.Err())
		case <-time.After(l.Retry):
		}
	}
}

func (l *RoomLeaseLocker) tryAcquire(ctx context.Context, roomID, token string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": roomID, "expires_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"owner": token, "acquired_at": now, "expires_at": now.Add(l.TTL)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := l.col.FindOneAndUpdate(ctx, filter, update, opts).Err()
	switch {
	case err == nil:
		return true, nil
	case mongo.IsDuplicateKeyError(err):
		// an unexpired lease exists, so the upsert collided with it
		return false, nil
	default:
		return false, err
	}
}

func (l *RoomLeaseLocker) release(roomID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = l.col.DeleteOne(ctx, bson.M{"_id": roomID, "owner": token})
}

// detach returns a context with no values that is cancelled together with parent.
func detach(parent context.Context) (context.Context, func()) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := parent.Deadline(); ok {
		ctx, cancel = context.WithDeadline(context.Background(), deadline)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	stop := context.AfterFunc(parent, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
