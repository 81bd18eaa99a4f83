package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/app/audit"
	"resortbook/internal/app/middleware"
	domainbooking "resortbook/internal/domain/booking"
	domainrooms "resortbook/internal/domain/rooms"
)

func TestRoomRepository_SaveAndSearch(t *testing.T) {
	repo := NewRoomRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testRoom(t, "room-1", "Garden Twin", 12000)))
	require.NoError(t, repo.Save(ctx, testRoom(t, "room-2", "Ocean Deluxe", 25000)))
	cheap := testRoom(t, "room-3", "Budget Single", 8000)
	cheap.SetActive(false, testNow)
	require.NoError(t, repo.Save(ctx, cheap))

	res, err := repo.Search(ctx, domainrooms.SearchParams{OnlyActive: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, domainrooms.RoomID("room-1"), res.Items[0].ID)

	res, err = repo.Search(ctx, domainrooms.SearchParams{Sort: domainrooms.SortByPriceDesc, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, domainrooms.RoomID("room-1"), res.Items[0].ID)
}

func TestRoomRepository_Conflicts(t *testing.T) {
	repo := NewRoomRepository()
	ctx := context.Background()

	room := testRoom(t, "room-1", "Garden", 12000)
	require.NoError(t, repo.Save(ctx, room))

	twin := testRoom(t, "room-2", "Garden", 12000)
	assert.ErrorIs(t, repo.Save(ctx, twin), domainrooms.ErrSlugDuplicate)

	stale, err := repo.ByID(ctx, "room-1")
	require.NoError(t, err)
	fresh, err := repo.ByID(ctx, "room-1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, fresh))
	assert.ErrorIs(t, repo.Save(ctx, stale), domainrooms.ErrVersionConflict)

	require.NoError(t, repo.Delete(ctx, "room-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "room-1"), domainrooms.ErrNotFound)
}

func TestBookingRepository(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	first := testBooking(t, "bk-1", "room-1", "2025-07-01", "2025-07-04")
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, first), ErrDuplicateBooking)
	assert.ErrorIs(t, repo.Create(ctx, testBooking(t, "bk-2", "room-1", "2025-07-03", "2025-07-05")), domainbooking.ErrNightsClaimed)
	require.NoError(t, repo.Create(ctx, testBooking(t, "bk-3", "room-2", "2025-07-03", "2025-07-05")))

	stored, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	_, err = stored.Cancel("", testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, stored))
	assert.Equal(t, int64(2), stored.Version)

	stale := first
	assert.ErrorIs(t, repo.Save(ctx, stale), domainbooking.ErrVersionConflict)

	active, err := repo.ActiveByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.Create(ctx, testBooking(t, "bk-4", "room-1", "2025-07-02", "2025-07-03")))

	items, total, err := repo.List(ctx, domainbooking.ListParams{RoomID: "room-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, domainbooking.ListParams{Status: "CANCELLED", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, domainbooking.BookingID("bk-1"), items[0].ID)

	mine, err := repo.ListByGuest(ctx, "guest-1")
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestBookingRepository_SequenceFollowsCreation(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	// testBooking stamps every booking with the same clock reading.
	for i, id := range []string{"bk-c", "bk-a", "bk-b"} {
		b := testBooking(t, id, []string{"room-1", "room-2", "room-3"}[i], "2025-07-01", "2025-07-04")
		require.NoError(t, repo.Create(ctx, b))
		assert.Equal(t, int64(i+1), b.Sequence)
	}

	rejected := testBooking(t, "bk-x", "room-1", "2025-07-02", "2025-07-03")
	require.ErrorIs(t, repo.Create(ctx, rejected), domainbooking.ErrNightsClaimed)
	assert.Zero(t, rejected.Sequence)

	items, _, err := repo.List(ctx, domainbooking.ListParams{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []domainbooking.BookingID{"bk-b", "bk-a", "bk-c"}, []domainbooking.BookingID{items[0].ID, items[1].ID, items[2].ID})
}

func TestIdempotencyStore(t *testing.T) {
	store := NewIdempotencyStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`)}))
	rec, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{}`), rec.Payload)

	rec.Payload[0] = 'x'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte(`{}`), again.Payload, "callers get a copy")
}

func TestIdempotencyStore_Retention(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore()
	store.Retention = time.Hour
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "old", OccurredAt: now.Add(-2 * time.Hour)}))
	_, found, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: now}))
	assert.Equal(t, 1, store.Len(), "expired records are pruned on write")
}

func TestAuditStore_ListNewestFirst(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, audit.Entry{EventID: "e1", BookingID: "bk-1", RoomID: "room-1", OccurredAt: base}))
	require.NoError(t, store.Append(ctx, audit.Entry{EventID: "e2", BookingID: "bk-1", RoomID: "room-1", OccurredAt: base.Add(time.Hour)}))
	require.NoError(t, store.Append(ctx, audit.Entry{EventID: "e3", BookingID: "bk-2", RoomID: "room-2", OccurredAt: base.Add(2 * time.Hour)}))

	entries, total, err := store.List(ctx, audit.ListParams{BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "e2", entries[0].EventID)

	entries, total, err = store.List(ctx, audit.ListParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "e2", entries[0].EventID)
}

func TestInbox(t *testing.T) {
	inbox := NewInbox()
	ctx := context.Background()

	seen, err := inbox.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = inbox.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, inbox.Forget(ctx, "ev-1"))
	seen, err = inbox.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)
}
