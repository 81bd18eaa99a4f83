package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/app/outbox"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/money"
	"resortbook/internal/infra/storage/memory"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// abortingFactory opens units whose commit is aborted by a concurrent writer, the way
// a transactional store reports a lost race.
type abortingFactory struct {
	memory.Factory
}

func (f abortingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.Factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return abortingUnit{UnitOfWork: unit}, nil
}

type abortingUnit struct {
	uow.UnitOfWork
}

func (u abortingUnit) Commit(ctx context.Context) error {
	_ = u.UnitOfWork.Rollback(ctx)
	return fmt.Errorf("commit transaction: %w", uow.ErrCommitConflict)
}

func newRequestHandler(t *testing.T, wrap func(memory.Factory) uow.UoWFactory) (*RequestBookingHandler, *memory.BookingRepository) {
	t.Helper()
	roomsRepo := memory.NewRoomRepository()
	bookings := memory.NewBookingRepository()
	room, err := rooms.NewRoom(rooms.CreateParams{
		ID: "room-1",
		Details: rooms.Details{
			Name:     "Ocean Deluxe",
			Type:     rooms.TypeDeluxe,
			Capacity: 2,
			Rate:     pricing.RoomRate{PricePerNight: money.Must(19999, "USD"), TaxRatePercent: 10},
		},
		Active: true,
		Now:    now,
	})
	require.NoError(t, err)
	require.NoError(t, roomsRepo.Save(context.Background(), room))

	factory := memory.Factory{Rooms: roomsRepo, Bookings: bookings}
	return &RequestBookingHandler{
		UoWFactory: wrap(factory),
		Service: &reservation.Service{
			Locker: memory.NewRoomLocks(),
			Now:    func() time.Time { return now },
			NewID:  func() string { return "bk-1" },
		},
		Outbox:  memory.NewOutbox(),
		Encoder: outbox.JSONEventEncoder{},
		Now:     func() time.Time { return now },
	}, bookings
}

func stay() RequestBookingCommand {
	return RequestBookingCommand{RoomID: "room-1", GuestID: "guest-1", CheckIn: "2025-07-01", CheckOut: "2025-07-04", Guests: 2}
}

func TestRequestBooking_Admits(t *testing.T) {
	h, bookings := newRequestHandler(t, func(f memory.Factory) uow.UoWFactory { return f })

	got, err := h.Handle(context.Background(), stay())
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)

	stored, err := bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Sequence)
}

func TestRequestBooking_CommitConflictIsUnavailable(t *testing.T) {
	h, bookings := newRequestHandler(t, func(f memory.Factory) uow.UoWFactory { return abortingFactory{Factory: f} })

	_, err := h.Handle(context.Background(), stay())
	require.Error(t, err)

	var conflict *domainbooking.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "room-1", conflict.RoomID)
	assert.ErrorIs(t, err, domainbooking.ErrRoomUnavailable)
	assert.ErrorIs(t, err, uow.ErrCommitConflict)

	_, total, err := bookings.List(context.Background(), domainbooking.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRequestBooking_PastCheckInPolicy(t *testing.T) {
	h, _ := newRequestHandler(t, func(f memory.Factory) uow.UoWFactory { return f })
	h.PastCheckIn = domainbooking.PastCheckInPolicy{Reject: true}

	cmd := stay()
	cmd.CheckIn, cmd.CheckOut = "2025-05-01", "2025-05-03"
	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainbooking.ErrCheckInInPast)
}
