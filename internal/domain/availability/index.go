package availability

import (
	"sort"

	"resortbook/internal/domain/shared/daterange"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Blocking reports whether intervals in this status hold the room.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// BookingInterval is the unit of conflict detection.
type BookingInterval struct {
	BookingID string
	RoomID    string
	Range     daterange.DateRange
	Status    Status
	// Sequence orders intervals by creation.
	Sequence int64
}

func (i BookingInterval) blocks(roomID string, dr daterange.DateRange) bool {
	return i.RoomID == roomID && i.Status.Blocking() && i.Range.Overlaps(dr)
}

func IsAvailable(roomID string, dr daterange.DateRange, intervals []BookingInterval) bool {
	for _, interval := range intervals {
		if interval.blocks(roomID, dr) {
			return false
		}
	}
	return true
}

// FindConflicts returns blocking intervals sorted by check-in, ties by creation order.
func FindConflicts(roomID string, dr daterange.DateRange, intervals []BookingInterval) []BookingInterval {
	var conflicts []BookingInterval
	for _, interval := range intervals {
		if interval.blocks(roomID, dr) {
			conflicts = append(conflicts, interval)
		}
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if !a.Range.CheckIn.Equal(b.Range.CheckIn) {
			return a.Range.CheckIn.Before(b.Range.CheckIn)
		}
		return a.Sequence < b.Sequence
	})
	return conflicts
}
