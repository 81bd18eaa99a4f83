package booking

import (
	"errors"
	"time"

	"resortbook/internal/domain/shared/daterange"
)

var ErrCheckInInPast = errors.New("booking: check-in date is in the past")

// PastCheckInPolicy is applied above the admission service when enabled in config.
type PastCheckInPolicy struct {
	Reject bool
}

func (p PastCheckInPolicy) Check(dr daterange.DateRange, now time.Time) error {
	if !p.Reject {
		return nil
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if dr.CheckIn.Before(today) {
		return ErrCheckInInPast
	}
	return nil
}
