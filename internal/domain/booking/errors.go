package booking

import (
	"errors"
	"fmt"

	"resortbook/internal/domain/availability"
	"resortbook/internal/domain/shared/daterange"
)

var (
	// ErrRoomUnavailable matches both RoomUnavailableError and ConcurrencyConflictError.
	ErrRoomUnavailable = errors.New("booking: room unavailable for the requested dates")
	// ErrNightsClaimed is returned by repositories when their exclusion check fails.
	ErrNightsClaimed = errors.New("booking: nights already claimed")
)

// RoomUnavailableError carries the bookings that block the requested range.
type RoomUnavailableError struct {
	RoomID    string
	Range     daterange.DateRange
	Conflicts []availability.BookingInterval
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("booking: room %s unavailable for %s (%d conflicting bookings)", e.RoomID, e.Range, len(e.Conflicts))
}

func (e *RoomUnavailableError) Unwrap() error { return ErrRoomUnavailable }

// ConcurrencyConflictError reports an admission lost to a concurrent one at the
// persistence layer. Callers treat it as unavailable.
type ConcurrencyConflictError struct {
	RoomID    string
	Range     daterange.DateRange
	Conflicts []availability.BookingInterval
	Cause     error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("booking: concurrent admission won for room %s %s: %v", e.RoomID, e.Range, e.Cause)
}

func (e *ConcurrencyConflictError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRoomUnavailable}
	}
	return []error{ErrRoomUnavailable, e.Cause}
}

// ConflictsOf extracts the conflicting intervals from either unavailable error kind.
func ConflictsOf(err error) ([]availability.BookingInterval, bool) {
	var unavailable *RoomUnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Conflicts, true
	}
	var conflict *ConcurrencyConflictError
	if errors.As(err, &conflict) {
		return conflict.Conflicts, true
	}
	return nil, false
}
