package availability

import (
	"context"
	"time"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/uow"
	domainavailability "resortbook/internal/domain/availability"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
)

const (
	getCalendarKey = "availability.calendar"

	defaultWindowNights = 60
	maxWindowNights     = 366
)

// GetCalendarQuery asks for the blocked spans of a room. Empty bounds default to a
// window starting today.
type GetCalendarQuery struct {
	RoomID string `validate:"required"`
	From   string
	To     string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	window, err := h.window(q.From, q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	room, err := loadVisibleRoom(ctx, execCtx, unit, q.RoomID)
	if err != nil {
		return dto.Calendar{}, err
	}
	active, err := unit.Bookings().ActiveByRoom(execCtx, room.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	cal := domainavailability.BuildCalendar(string(room.ID), window, booking.Intervals(active))
	return dto.MapCalendar(cal), nil
}

func (h *GetCalendarHandler) window(from, to string) (daterange.DateRange, error) {
	if from == "" {
		from = daterange.FormatDate(h.now())
	}
	if to == "" {
		start, err := daterange.ParseDate(from)
		if err != nil {
			return daterange.DateRange{}, err
		}
		to = daterange.FormatDate(start.AddDate(0, 0, defaultWindowNights))
	}
	window, err := daterange.Parse(from, to)
	if err != nil {
		return daterange.DateRange{}, err
	}
	if window.Nights() > maxWindowNights {
		return daterange.DateRange{}, &daterange.InvalidRangeError{
			CheckIn:  from,
			CheckOut: to,
			Reason:   "calendar window exceeds one year",
		}
	}
	return window, nil
}

func (h *GetCalendarHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// loadVisibleRoom hides inactive rooms from everyone but admins.
func loadVisibleRoom(callerCtx, execCtx context.Context, unit uow.UnitOfWork, id string) (*rooms.Room, error) {
	room, err := unit.Rooms().ByID(execCtx, rooms.RoomID(id))
	if err != nil {
		return nil, err
	}
	if !room.Active {
		if p, ok := reqctx.PrincipalFrom(callerCtx); !ok || !p.IsAdmin() {
			return nil, rooms.ErrNotFound
		}
	}
	return room, nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
