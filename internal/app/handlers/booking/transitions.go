package booking

import (
	"context"
	"log/slog"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/middleware"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
)

const (
	confirmBookingKey = "booking.confirm"
	cancelBookingKey  = "booking.cancel"
)

type ConfirmBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
}

func (c ConfirmBookingCommand) Key() string          { return confirmBookingKey }
func (c ConfirmBookingCommand) RequiredRole() string { return reqctx.RoleAdmin }

// CancelBookingCommand is issued by the guest owning the booking or by an admin.
type CancelBookingCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (c CancelBookingCommand) Key() string          { return cancelBookingKey }
func (c CancelBookingCommand) RequiredRole() string { return "" }

type TransitionHandler struct {
	UoWFactory uow.UoWFactory
	Service    *reservation.Service
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *TransitionHandler) Confirm(ctx context.Context, cmd ConfirmBookingCommand) (dto.BookingResult, error) {
	return h.apply(ctx, cmd.BookingID, "confirm", func(b *domainbooking.Booking) (bool, error) {
		return h.Service.Confirm(b)
	})
}

func (h *TransitionHandler) Cancel(ctx context.Context, cmd CancelBookingCommand) (dto.BookingResult, error) {
	return h.apply(ctx, cmd.BookingID, "cancel", func(b *domainbooking.Booking) (bool, error) {
		if err := ensureAccess(ctx, b); err != nil {
			return false, err
		}
		return h.Service.Cancel(b, cmd.Reason)
	})
}

func (h *TransitionHandler) apply(ctx context.Context, id, action string, transition func(*domainbooking.Booking) (bool, error)) (dto.BookingResult, error) {
	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingResult{}, err
	}
	defer unit.Release()

	b, err := unit.Bookings().ByID(unit.Ctx, domainbooking.BookingID(id))
	if err != nil {
		return dto.BookingResult{}, err
	}
	changed, err := transition(b)
	if err != nil {
		return dto.BookingResult{}, err
	}
	if changed {
		if err := unit.Bookings().Save(unit.Ctx, b); err != nil {
			return dto.BookingResult{}, err
		}
		if err := outbox.RecordFrom(unit.Ctx, h.Outbox, h.Encoder, b); err != nil {
			return dto.BookingResult{}, err
		}
	}
	if err := unit.Commit(); err != nil {
		return dto.BookingResult{}, err
	}
	room, _ := unit.Rooms().ByID(unit.Ctx, b.RoomID)
	if h.Logger != nil {
		h.Logger.Info("booking "+action, "booking_id", b.ID, "status", b.Status, "changed", changed)
	}
	return dto.BookingResult{Booking: dto.MapBooking(b, room), Changed: changed}, nil
}

// ensureAccess lets admins act on any booking and guests only on their own.
func ensureAccess(ctx context.Context, b *domainbooking.Booking) error {
	p, ok := reqctx.PrincipalFrom(ctx)
	if !ok {
		return middleware.ErrUnauthenticated
	}
	if p.IsAdmin() || p.ID == b.GuestID {
		return nil
	}
	return domainbooking.ErrBookingNotOwned
}

