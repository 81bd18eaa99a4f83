package reservation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"resortbook/internal/domain/availability"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
)

var ErrLockerMissing = errors.New("reservation: room locker required")

// IntervalProvider supplies the current bookings of a room. It is called while the
// room lock is held.
type IntervalProvider interface {
	ActiveIntervals(ctx context.Context, roomID rooms.RoomID) ([]availability.BookingInterval, error)
}

type IntervalProviderFunc func(ctx context.Context, roomID rooms.RoomID) ([]availability.BookingInterval, error)

func (f IntervalProviderFunc) ActiveIntervals(ctx context.Context, roomID rooms.RoomID) ([]availability.BookingInterval, error) {
	return f(ctx, roomID)
}

// RepositoryIntervals reads intervals from the blocking bookings in repo.
func RepositoryIntervals(repo booking.Repository) IntervalProvider {
	return IntervalProviderFunc(func(ctx context.Context, roomID rooms.RoomID) ([]availability.BookingInterval, error) {
		active, err := repo.ActiveByRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return booking.Intervals(active), nil
	})
}

// RoomLocker serializes admissions per room.
type RoomLocker interface {
	Lock(ctx context.Context, roomID string) (unlock func(), err error)
}

// AdmitFunc persists an admitted booking. It runs inside the locked section and must
// return booking.ErrNightsClaimed when the store's own exclusion check fails.
type AdmitFunc func(ctx context.Context, b *booking.Booking) error

type Service struct {
	Calculator pricing.Calculator
	Locker     RoomLocker
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

type RequestParams struct {
	RoomID     rooms.RoomID
	GuestID    string
	GuestName  string
	GuestEmail string
	Guests     int
	CheckIn    string
	CheckOut   string
	Rate       pricing.RoomRate
	Notes      string
}

type Admission struct {
	Quote    pricing.Quote
	Booking  *booking.Booking
	Interval availability.BookingInterval
}

// Quote prices a stay without touching any state.
func (s *Service) Quote(rate pricing.RoomRate, checkIn, checkOut string) (pricing.Quote, error) {
	dr, err := daterange.Parse(checkIn, checkOut)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.Calculator.Quote(rate, dr)
}

// RequestBooking validates and prices the stay, then admits it as PENDING unless an
// existing blocking booking overlaps. The availability check and admit run under the
// per-room lock; a rejected request leaves nothing behind.
func (s *Service) RequestBooking(ctx context.Context, p RequestParams, provider IntervalProvider, admit AdmitFunc) (*Admission, error) {
	if s.Locker == nil {
		return nil, ErrLockerMissing
	}
	quote, err := s.Quote(p.Rate, p.CheckIn, p.CheckOut)
	if err != nil {
		return nil, err
	}
	dr := quote.Range

	unlock, err := s.Locker.Lock(ctx, string(p.RoomID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	intervals, err := provider.ActiveIntervals(ctx, p.RoomID)
	if err != nil {
		return nil, err
	}
	if conflicts := availability.FindConflicts(string(p.RoomID), dr, intervals); len(conflicts) > 0 {
		s.log().Info("booking rejected, room unavailable", "room_id", p.RoomID, "range", dr.String(), "conflicts", len(conflicts))
		return nil, &booking.RoomUnavailableError{RoomID: string(p.RoomID), Range: dr, Conflicts: conflicts}
	}

	b, err := booking.NewBooking(booking.CreateParams{
		ID:         booking.BookingID(s.newID()),
		RoomID:     p.RoomID,
		GuestID:    p.GuestID,
		GuestName:  p.GuestName,
		GuestEmail: p.GuestEmail,
		Guests:     p.Guests,
		Quote:      quote,
		Notes:      p.Notes,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := admit(ctx, b); err != nil {
		if errors.Is(err, booking.ErrNightsClaimed) {
			s.log().Warn("booking admission lost to concurrent request", "room_id", p.RoomID, "range", dr.String(), "error", err)
			return nil, &booking.ConcurrencyConflictError{
				RoomID:    string(p.RoomID),
				Range:     dr,
				Conflicts: s.recheck(ctx, provider, p.RoomID, dr),
				Cause:     err,
			}
		}
		return nil, err
	}

	s.log().Info("booking admitted", "booking_id", b.ID, "room_id", b.RoomID, "range", dr.String(), "total", quote.Total.String())
	return &Admission{Quote: quote, Booking: b, Interval: b.Interval()}, nil
}

// Confirm applies PENDING -> CONFIRMED; an already confirmed booking is left as is.
func (s *Service) Confirm(b *booking.Booking) (bool, error) {
	return b.Confirm(s.now())
}

// Cancel applies PENDING|CONFIRMED -> CANCELLED; an already cancelled booking is left as is.
func (s *Service) Cancel(b *booking.Booking, reason string) (bool, error) {
	return b.Cancel(reason, s.now())
}

// recheck is best effort; the conflict stands even if the re-read fails.
func (s *Service) recheck(ctx context.Context, provider IntervalProvider, roomID rooms.RoomID, dr daterange.DateRange) []availability.BookingInterval {
	intervals, err := provider.ActiveIntervals(ctx, roomID)
	if err != nil {
		return nil
	}
	return availability.FindConflicts(string(roomID), dr, intervals)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
