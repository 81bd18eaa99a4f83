package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/domain/availability"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func quoteFor(t *testing.T, in, out string) pricing.Quote {
	t.Helper()
	q, err := pricing.Calculator{}.Quote(
		pricing.RoomRate{PricePerNight: money.Must(19999, "USD"), TaxRatePercent: 10},
		daterange.MustParse(in, out),
	)
	require.NoError(t, err)
	return q
}

func newPending(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		ID:         "bk-1",
		RoomID:     "room-1",
		GuestID:    " guest-1 ",
		GuestName:  "Ada",
		GuestEmail: " Ada@Example.COM ",
		Guests:     2,
		Quote:      quoteFor(t, "2025-07-01", "2025-07-04"),
		CreatedAt:  testNow,
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newPending(t)

	assert.Equal(t, availability.StatusPending, b.Status)
	assert.Equal(t, "guest-1", b.GuestID)
	assert.Equal(t, "ada@example.com", b.GuestEmail)
	assert.Equal(t, int64(65997), b.Quote.Total.Amount)
	assert.True(t, b.Blocking())

	events := b.Drain()
	require.Len(t, events, 1)
	requested, ok := events[0].(BookingRequested)
	require.True(t, ok)
	assert.Equal(t, "booking.requested", requested.EventName())
	assert.Equal(t, "bk-1", requested.AggregateID())
	assert.Equal(t, int64(65997), requested.Total)
}

func TestNewBooking_Validation(t *testing.T) {
	quote := quoteFor(t, "2025-07-01", "2025-07-04")

	_, err := NewBooking(CreateParams{ID: "x", GuestID: "g", Guests: 0, Quote: quote})
	assert.ErrorIs(t, err, ErrInvalidGuests)

	_, err = NewBooking(CreateParams{ID: "x", GuestID: "  ", Guests: 1, Quote: quote})
	assert.ErrorIs(t, err, ErrGuestRequired)

	_, err = NewBooking(CreateParams{ID: "x", GuestID: "g", Guests: 1})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	tampered := quote
	tampered.Nights = 1
	_, err = NewBooking(CreateParams{ID: "x", GuestID: "g", Guests: 1, Quote: tampered})
	assert.ErrorIs(t, err, ErrQuoteRangeMismatch)
}

func TestConfirm(t *testing.T) {
	b := newPending(t)
	b.ClearEvents()

	changed, err := b.Confirm(testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, availability.StatusConfirmed, b.Status)
	assert.Len(t, b.PendingEvents(), 1)

	changed, err = b.Confirm(testNow.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.False(t, changed, "confirming twice is a no-op")
	assert.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, testNow.Add(time.Hour), b.UpdatedAt)
}

func TestCancel(t *testing.T) {
	b := newPending(t)
	_, err := b.Confirm(testNow)
	require.NoError(t, err)
	b.ClearEvents()

	changed, err := b.Cancel("  plans changed ", testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, availability.StatusCancelled, b.Status)
	assert.Equal(t, "plans changed", b.CancelNote)
	assert.False(t, b.Blocking())

	changed, err = b.Cancel("again", testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "plans changed", b.CancelNote)
	assert.Len(t, b.PendingEvents(), 1)
}

func TestConfirm_AfterCancelIsInvalid(t *testing.T) {
	b := newPending(t)
	_, err := b.Cancel("", testNow)
	require.NoError(t, err)

	_, err = b.Confirm(testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, availability.StatusCancelled, b.Status)
}

func TestIntervals(t *testing.T) {
	b := newPending(t)
	intervals := Intervals([]*Booking{b})
	require.Len(t, intervals, 1)
	assert.Equal(t, "bk-1", intervals[0].BookingID)
	assert.Equal(t, "room-1", intervals[0].RoomID)
	assert.Equal(t, b.Range, intervals[0].Range)
	assert.Equal(t, b.Sequence, intervals[0].Sequence)
}

func TestUnavailableErrors(t *testing.T) {
	conflicts := []availability.BookingInterval{{BookingID: "bk-0"}}

	var err error = &RoomUnavailableError{RoomID: "room-1", Conflicts: conflicts}
	assert.ErrorIs(t, err, ErrRoomUnavailable)
	got, ok := ConflictsOf(err)
	require.True(t, ok)
	assert.Equal(t, conflicts, got)

	err = &ConcurrencyConflictError{RoomID: "room-1", Conflicts: conflicts, Cause: ErrNightsClaimed}
	assert.ErrorIs(t, err, ErrRoomUnavailable)
	assert.ErrorIs(t, err, ErrNightsClaimed)
	got, ok = ConflictsOf(err)
	require.True(t, ok)
	assert.Equal(t, conflicts, got)

	_, ok = ConflictsOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestPastCheckInPolicy(t *testing.T) {
	past := daterange.MustParse("2025-05-30", "2025-06-02")

	assert.NoError(t, PastCheckInPolicy{}.Check(past, testNow))
	assert.ErrorIs(t, PastCheckInPolicy{Reject: true}.Check(past, testNow), ErrCheckInInPast)
	assert.NoError(t, PastCheckInPolicy{Reject: true}.Check(daterange.MustParse("2025-06-01", "2025-06-02"), testNow), "today is allowed")
}
