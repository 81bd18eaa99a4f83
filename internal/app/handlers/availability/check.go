package availability

import (
	"context"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/handlers/support"
	"resortbook/internal/app/reqctx"
	"resortbook/internal/app/services/reservation"
	"resortbook/internal/app/uow"
	domainavailability "resortbook/internal/domain/availability"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
)

const (
	checkAvailabilityKey = "availability.check"
	listConflictsKey     = "availability.conflicts"
)

// CheckAvailabilityQuery answers whether a stay could be requested right now. The
// answer is advisory; admission re-checks under the room lock.
type CheckAvailabilityQuery struct {
	RoomID   string `validate:"required"`
	CheckIn  string `validate:"required"`
	CheckOut string `validate:"required"`
	Guests   int    `validate:"min=0"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type ListConflictsQuery struct {
	RoomID   string `validate:"required"`
	CheckIn  string `validate:"required"`
	CheckOut string `validate:"required"`
}

func (q ListConflictsQuery) Key() string          { return listConflictsKey }
func (q ListConflictsQuery) RequiredRole() string { return reqctx.RoleAdmin }

type CheckHandler struct {
	UoWFactory uow.UoWFactory
	Service    *reservation.Service
}

func (h *CheckHandler) Check(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	room, err := loadVisibleRoom(ctx, execCtx, unit, q.RoomID)
	if err != nil {
		return dto.Availability{}, err
	}
	if q.Guests > room.Capacity {
		return dto.Availability{}, rooms.ErrGuestsCount
	}
	quote, err := h.Service.Quote(room.Rate, q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Availability{}, err
	}
	active, err := unit.Bookings().ActiveByRoom(execCtx, room.ID)
	if err != nil {
		return dto.Availability{}, err
	}
	mapped := dto.MapQuote(quote)
	return dto.Availability{
		RoomID:    string(room.ID),
		Range:     dto.MapRange(quote.Range),
		Available: domainavailability.IsAvailable(string(room.ID), quote.Range, booking.Intervals(active)),
		Quote:     &mapped,
	}, nil
}

func (h *CheckHandler) Conflicts(ctx context.Context, q ListConflictsQuery) (dto.Conflicts, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Conflicts{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	room, err := unit.Rooms().ByID(execCtx, rooms.RoomID(q.RoomID))
	if err != nil {
		return dto.Conflicts{}, err
	}
	intervals, err := reservation.RepositoryIntervals(unit.Bookings()).ActiveIntervals(execCtx, room.ID)
	if err != nil {
		return dto.Conflicts{}, err
	}
	dr, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Conflicts{}, err
	}
	return dto.Conflicts{
		RoomID:    string(room.ID),
		Range:     dto.MapRange(dr),
		Conflicts: dto.MapIntervals(domainavailability.FindConflicts(string(room.ID), dr, intervals)),
	}, nil
}
