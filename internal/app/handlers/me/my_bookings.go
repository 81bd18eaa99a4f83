package me

import (
	"context"
	"log/slog"

	"resortbook/internal/app/dto"
	bookinghandlers "resortbook/internal/app/handlers/booking"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/uow"
)

const listMyBookingsKey = "me.bookings.list"

type ListMyBookingsQuery struct {
	GuestID string `validate:"required"`
	// Status narrows the list to one booking status; empty lists all of them.
	Status string `validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}

func (q ListMyBookingsQuery) Key() string          { return listMyBookingsKey }
func (q ListMyBookingsQuery) RequiredRole() string { return "" }

type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle lists the guest's bookings newest first, cancelled ones included unless
// the query asks for a single status.
func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, q.GuestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if q.Status != "" {
		kept := bookings[:0]
		for _, b := range bookings {
			if string(b.Status) == q.Status {
				kept = append(kept, b)
			}
		}
		bookings = kept
	}
	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", q.GuestID, "count", len(bookings))
	}
	return bookinghandlers.MapCollection(execCtx, unit.Rooms(), bookings, len(bookings)), nil
}

var _ queries.Handler[ListMyBookingsQuery, dto.BookingCollection] = (*ListMyBookingsHandler)(nil)
