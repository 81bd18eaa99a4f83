package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "resortbook/internal/app/outbox"
	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	domainrooms "resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func testRoom(t *testing.T, id, name string, price int64) *domainrooms.Room {
	t.Helper()
	room, err := domainrooms.NewRoom(domainrooms.CreateParams{
		ID: domainrooms.RoomID(id),
		Details: domainrooms.Details{
			Name:     name,
			Type:     domainrooms.TypeDeluxe,
			Capacity: 2,
			Rate:     pricing.RoomRate{PricePerNight: money.Must(price, "USD"), TaxRatePercent: 10},
		},
		Active: true,
		Now:    testNow,
	})
	require.NoError(t, err)
	return room
}

func testBooking(t *testing.T, id, roomID, in, out string) *domainbooking.Booking {
	t.Helper()
	quote, err := pricing.Calculator{}.Quote(
		pricing.RoomRate{PricePerNight: money.Must(10000, "USD")},
		daterange.MustParse(in, out),
	)
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		RoomID:    domainrooms.RoomID(roomID),
		GuestID:   "guest-1",
		Guests:    1,
		Quote:     quote,
		CreatedAt: testNow,
	})
	require.NoError(t, err)
	return b
}

func newFactory() Factory {
	return Factory{Rooms: NewRoomRepository(), Bookings: NewBookingRepository()}
}

func TestUnit_StagesUntilCommit(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Rooms().Save(ctx, testRoom(t, "room-1", "Garden", 10000)))

	_, err = factory.Rooms.ByID(ctx, "room-1")
	assert.ErrorIs(t, err, domainrooms.ErrNotFound, "staged writes are invisible before commit")

	require.NoError(t, unit.Commit(ctx))
	stored, err := factory.Rooms.ByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)
	assert.ErrorIs(t, unit.Rooms().Save(ctx, stored), ErrUnitClosed)
}

func TestUnit_RollbackDiscards(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Create(ctx, testBooking(t, "bk-1", "room-1", "2025-07-01", "2025-07-03")))
	require.NoError(t, unit.Rollback(ctx))

	_, err = factory.Bookings.ByID(ctx, "bk-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestUnit_ReadOnly(t *testing.T) {
	unit, err := newFactory().Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	err = unit.Rooms().Save(context.Background(), testRoom(t, "room-1", "Garden", 10000))
	assert.ErrorIs(t, err, ErrReadOnlyUnit)
}

func TestUnit_CommitSurfacesExclusion(t *testing.T) {
	factory := newFactory()
	ctx := context.Background()
	require.NoError(t, factory.Bookings.Create(ctx, testBooking(t, "bk-1", "room-1", "2025-07-01", "2025-07-05")))

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Create(ctx, testBooking(t, "bk-2", "room-1", "2025-07-04", "2025-07-06")))
	assert.ErrorIs(t, unit.Commit(ctx), domainbooking.ErrNightsClaimed)
}

func TestFactory_Misconfigured(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)
}

func TestOutbox_StagedUnderUnit(t *testing.T) {
	var delivered []appoutbox.EventRecord
	box := NewOutbox(func(_ context.Context, rec appoutbox.EventRecord) error {
		delivered = append(delivered, rec)
		return nil
	})
	factory := newFactory()

	failed, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	failedCtx := uow.Inject(context.Background(), failed)
	require.NoError(t, box.Add(failedCtx, appoutbox.EventRecord{ID: "ev-lost"}))
	require.NoError(t, failed.Rollback(failedCtx))

	committed, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	okCtx := uow.Inject(context.Background(), committed)
	require.NoError(t, box.Add(okCtx, appoutbox.EventRecord{ID: "ev-kept"}))
	assert.Empty(t, box.Pending())
	require.NoError(t, committed.Commit(okCtx))

	require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{ID: "ev-direct"}))
	require.Len(t, box.Pending(), 2)

	require.NoError(t, box.Flush(context.Background()))
	require.Len(t, delivered, 2)
	assert.Equal(t, "ev-kept", delivered[0].ID)
	assert.Equal(t, "ev-direct", delivered[1].ID)
	assert.Empty(t, box.Pending())
}
