package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is the sentinel matched by every InvalidRangeError.
var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

const (
	dayMillis  = int64(24 * time.Hour / time.Millisecond)
	dateLayout = "2006-01-02"
)

// InvalidRangeError describes why a check-in/check-out pair was rejected.
type InvalidRangeError struct {
	CheckIn  string
	CheckOut string
	Reason   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("daterange: invalid range [%s, %s): %s", e.CheckIn, e.CheckOut, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// DateRange represents a half-open interval [checkIn, checkOut) of calendar dates.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a range from two instants. Time of day is dropped.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: calendarDate(checkIn), CheckOut: calendarDate(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse accepts YYYY-MM-DD or RFC3339 values.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := parseDate(checkIn)
	if err != nil {
		return DateRange{}, &InvalidRangeError{CheckIn: checkIn, CheckOut: checkOut, Reason: "check-in is not a calendar date"}
	}
	out, err := parseDate(checkOut)
	if err != nil {
		return DateRange{}, &InvalidRangeError{CheckIn: checkIn, CheckOut: checkOut, Reason: "check-out is not a calendar date"}
	}
	return New(in, out)
}

// MustParse is meant for fixtures and tests.
func MustParse(checkIn, checkOut string) DateRange {
	dr, err := Parse(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	return dr
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return &InvalidRangeError{CheckIn: formatDate(dr.CheckIn), CheckOut: formatDate(dr.CheckOut), Reason: "both dates are required"}
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return &InvalidRangeError{CheckIn: formatDate(dr.CheckIn), CheckOut: formatDate(dr.CheckOut), Reason: "check-out must be after check-in"}
	}
	return nil
}

// Nights rounds the millisecond difference up to whole days.
func (dr DateRange) Nights() int {
	diff := dr.CheckOut.Sub(dr.CheckIn).Milliseconds()
	if diff <= 0 {
		return 0
	}
	return int((diff + dayMillis - 1) / dayMillis)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = calendarDate(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Merge joins overlapping or touching ranges.
func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.Before(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.After(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Dates lists every night of the stay, check-out excluded.
func (dr DateRange) Dates() []time.Time {
	nights := dr.Nights()
	out := make([]time.Time, 0, nights)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return "[" + formatDate(dr.CheckIn) + ", " + formatDate(dr.CheckOut) + ")"
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string { return formatDate(t) }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// ParseDate reads a single calendar date in either accepted layout.
func ParseDate(raw string) (time.Time, error) {
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, &InvalidRangeError{CheckIn: raw, Reason: "not a calendar date"}
	}
	return calendarDate(t), nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("daterange: empty date")
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	// the date as written in the value's own offset, not the UTC date
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
