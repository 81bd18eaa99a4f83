package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/middleware"
	"resortbook/internal/app/outbox"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	domainbooking "resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	RoomID          string `json:"room_id" validate:"required"`
	GuestID         string `json:"guest_id" validate:"required"`
	GuestName       string `json:"guest_name" validate:"max=200"`
	GuestEmail      string `json:"guest_email" validate:"omitempty,email"`
	CheckIn         string `json:"check_in" validate:"required"`
	CheckOut        string `json:"check_out" validate:"required"`
	Guests          int    `json:"guests" validate:"min=1"`
	Notes           string `json:"notes" validate:"max=1000"`
	IdempotencyKeyV string `json:"-"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c RequestBookingCommand) RequiredRole() string { return "" }

// SelfTransacted: the unit is committed inside the room lock.
func (c RequestBookingCommand) SelfTransacted() bool { return true }

type RequestBookingHandler struct {
	UoWFactory  uow.UoWFactory
	Service     *reservation.Service
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	PastCheckIn domainbooking.PastCheckInPolicy
	Logger      *slog.Logger
	Now         func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (dto.Booking, error) {
	if h.PastCheckIn.Reject {
		dr, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
		if err != nil {
			return dto.Booking{}, err
		}
		if err := h.PastCheckIn.Check(dr, h.now()); err != nil {
			return dto.Booking{}, err
		}
	}

	unit, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer unit.Release()

	room, err := unit.Rooms().ByID(unit.Ctx, rooms.RoomID(cmd.RoomID))
	if err != nil {
		return dto.Booking{}, err
	}
	if err := room.CheckBookable(cmd.Guests); err != nil {
		return dto.Booking{}, err
	}

	admission, err := h.Service.RequestBooking(unit.Ctx, reservation.RequestParams{
		RoomID:     room.ID,
		GuestID:    cmd.GuestID,
		GuestName:  cmd.GuestName,
		GuestEmail: cmd.GuestEmail,
		Guests:     cmd.Guests,
		CheckIn:    cmd.CheckIn,
		CheckOut:   cmd.CheckOut,
		Rate:       room.Rate,
		Notes:      cmd.Notes,
	}, reservation.RepositoryIntervals(unit.Bookings()), func(ctx context.Context, b *domainbooking.Booking) error {
		if err := unit.Bookings().Create(ctx, b); err != nil {
			return err
		}
		if err := outbox.RecordFrom(ctx, h.Outbox, h.Encoder, b); err != nil {
			return err
		}
		if err := unit.Commit(); err != nil {
			if errors.Is(err, uow.ErrCommitConflict) {
				return errors.Join(domainbooking.ErrNightsClaimed, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return dto.Booking{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", admission.Booking.ID, "room_id", room.ID, "guest_id", cmd.GuestID, "nights", admission.Quote.Nights)
	}
	return dto.MapBooking(admission.Booking, room), nil
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var (
	_ commands.Handler[RequestBookingCommand, dto.Booking] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                        = RequestBookingCommand{}
	_ middleware.Restricted                               = RequestBookingCommand{}
	_ middleware.SelfTransacted                           = RequestBookingCommand{}
)
