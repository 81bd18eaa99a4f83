package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"resortbook/internal/domain/availability"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/events"
)

var (
	ErrInvalidGuests      = errors.New("booking: guests count must be positive")
	ErrGuestRequired      = errors.New("booking: guest id required")
	ErrInvalidTransition  = errors.New("booking: invalid status transition")
	ErrBookingNotFound    = errors.New("booking: not found")
	ErrBookingNotOwned    = errors.New("booking: not owned by guest")
	ErrRangeImmutable     = errors.New("booking: dates cannot change, cancel and request again")
	ErrQuoteRangeMismatch = errors.New("booking: quote does not match requested range")
	ErrVersionConflict    = errors.New("booking: modified concurrently, reload and retry")
)

type BookingID string

type Status = availability.Status

type Booking struct {
	ID         BookingID
	RoomID     rooms.RoomID
	GuestID    string
	GuestName  string
	GuestEmail string
	Range      daterange.DateRange
	Guests     int
	Quote      pricing.Quote
	Status     Status
	// Sequence is assigned by the repository on Create, in admission order.
	Sequence   int64
	Notes      string
	CancelNote string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Create inserts a freshly admitted booking. Implementations reject it with
	// ErrNightsClaimed when another blocking booking already holds any of its nights.
	Create(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
	ActiveByRoom(ctx context.Context, roomID rooms.RoomID) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	List(ctx context.Context, params ListParams) ([]*Booking, int, error)
}

type ListParams struct {
	RoomID rooms.RoomID
	Status Status
	Limit  int
	Offset int
}

type CreateParams struct {
	ID         BookingID
	RoomID     rooms.RoomID
	GuestID    string
	GuestName  string
	GuestEmail string
	Guests     int
	Quote      pricing.Quote
	Notes      string
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Quote.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Quote.Nights != params.Quote.Range.Nights() {
		return nil, ErrQuoteRangeMismatch
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		RoomID:     params.RoomID,
		GuestID:    strings.TrimSpace(params.GuestID),
		GuestName:  strings.TrimSpace(params.GuestName),
		GuestEmail: strings.ToLower(strings.TrimSpace(params.GuestEmail)),
		Range:      params.Quote.Range,
		Guests:     params.Guests,
		Quote:      params.Quote,
		Status:     availability.StatusPending,
		Notes:      strings.TrimSpace(params.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		GuestID:   b.GuestID,
		CheckIn:   b.Range.CheckIn,
		CheckOut:  b.Range.CheckOut,
		Guests:    b.Guests,
		Total:     b.Quote.Total.Amount,
		Currency:  b.Quote.Total.Currency,
		At:        now,
	})
	return b, nil
}

// Confirm moves PENDING to CONFIRMED. Confirming twice is a no-op.
func (b *Booking) Confirm(now time.Time) (changed bool, err error) {
	switch b.Status {
	case availability.StatusConfirmed:
		return false, nil
	case availability.StatusPending:
	default:
		return false, ErrInvalidTransition
	}
	b.Status = availability.StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, RoomID: b.RoomID, CheckIn: b.Range.CheckIn, CheckOut: b.Range.CheckOut, At: b.UpdatedAt})
	return true, nil
}

// Cancel releases the nights. Cancelling twice is a no-op.
func (b *Booking) Cancel(reason string, now time.Time) (changed bool, err error) {
	switch b.Status {
	case availability.StatusCancelled:
		return false, nil
	case availability.StatusPending, availability.StatusConfirmed:
	default:
		return false, ErrInvalidTransition
	}
	b.Status = availability.StatusCancelled
	b.CancelNote = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, RoomID: b.RoomID, Reason: b.CancelNote, At: b.UpdatedAt})
	return true, nil
}

func (b *Booking) Blocking() bool {
	return b.Status.Blocking()
}

func (b *Booking) Interval() availability.BookingInterval {
	return availability.BookingInterval{
		BookingID: string(b.ID),
		RoomID:    string(b.RoomID),
		Range:     b.Range,
		Status:    b.Status,
		Sequence:  b.Sequence,
	}
}

// Intervals projects bookings for the availability index.
func Intervals(bookings []*Booking) []availability.BookingInterval {
	out := make([]availability.BookingInterval, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Interval())
	}
	return out
}
