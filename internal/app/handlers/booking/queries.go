package booking

import (
	"context"
	"errors"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
)

const (
	getBookingKey   = "bookings.get"
	listBookingsKey = "admin.bookings.list"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string          { return getBookingKey }
func (q GetBookingQuery) RequiredRole() string { return "" }

type ListBookingsQuery struct {
	RoomID string
	Status string `validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
	Limit  int    `validate:"min=0,max=200"`
	Offset int    `validate:"min=0"`
}

func (q ListBookingsQuery) Key() string          { return listBookingsKey }
func (q ListBookingsQuery) RequiredRole() string { return reqctx.RoleAdmin }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Get(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	if err := ensureAccess(ctx, b); err != nil {
		// Hide other guests' bookings entirely.
		if errors.Is(err, domainbooking.ErrBookingNotOwned) {
			return dto.Booking{}, domainbooking.ErrBookingNotFound
		}
		return dto.Booking{}, err
	}
	room, _ := unit.Rooms().ByID(execCtx, b.RoomID)
	return dto.MapBooking(b, room), nil
}

func (h *QueryHandler) List(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	limit := q.Limit
	if limit == 0 {
		limit = 50
	}
	items, total, err := unit.Bookings().List(execCtx, domainbooking.ListParams{
		RoomID: rooms.RoomID(q.RoomID),
		Status: domainbooking.Status(q.Status),
		Limit:  limit,
		Offset: q.Offset,
	})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return MapCollection(execCtx, unit.Rooms(), items, total), nil
}

// MapCollection attaches room snapshots, loading each room once.
func MapCollection(ctx context.Context, repo rooms.Repository, items []*domainbooking.Booking, total int) dto.BookingCollection {
	cache := make(map[rooms.RoomID]*rooms.Room)
	out := dto.BookingCollection{Items: make([]dto.Booking, 0, len(items)), Total: total}
	for _, b := range items {
		room, ok := cache[b.RoomID]
		if !ok {
			room, _ = repo.ByID(ctx, b.RoomID)
			cache[b.RoomID] = room
		}
		out.Items = append(out.Items, dto.MapBooking(b, room))
	}
	return out
}

