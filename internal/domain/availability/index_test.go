package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/domain/shared/daterange"
)

func interval(id, room, in, out string, status Status, seq int64) BookingInterval {
	return BookingInterval{
		BookingID: id,
		RoomID:    room,
		Range:     daterange.MustParse(in, out),
		Status:    status,
		Sequence:  seq,
	}
}

func TestIsAvailable(t *testing.T) {
	intervals := []BookingInterval{
		interval("b1", "room-1", "2025-07-01", "2025-07-05", StatusConfirmed, 1),
		interval("b2", "room-1", "2025-07-10", "2025-07-12", StatusCancelled, 2),
		interval("b3", "room-2", "2025-07-05", "2025-07-08", StatusPending, 3),
	}

	assert.False(t, IsAvailable("room-1", daterange.MustParse("2025-07-04", "2025-07-06"), intervals))
	assert.True(t, IsAvailable("room-1", daterange.MustParse("2025-07-05", "2025-07-08"), intervals), "check-out day is free")
	assert.True(t, IsAvailable("room-1", daterange.MustParse("2025-07-10", "2025-07-12"), intervals), "cancelled bookings do not block")
	assert.False(t, IsAvailable("room-2", daterange.MustParse("2025-07-06", "2025-07-07"), intervals), "pending bookings block")
	assert.True(t, IsAvailable("room-3", daterange.MustParse("2025-07-01", "2025-07-30"), intervals))
	assert.True(t, IsAvailable("room-1", daterange.MustParse("2025-07-01", "2025-07-05"), nil))
}

func TestFindConflicts_Ordering(t *testing.T) {
	intervals := []BookingInterval{
		interval("late", "room-1", "2025-07-08", "2025-07-09", StatusPending, 1),
		interval("second", "room-1", "2025-07-02", "2025-07-04", StatusConfirmed, 5),
		interval("first", "room-1", "2025-07-02", "2025-07-03", StatusPending, 3),
		interval("gone", "room-1", "2025-07-02", "2025-07-03", StatusCancelled, 2),
		interval("elsewhere", "room-2", "2025-07-02", "2025-07-03", StatusConfirmed, 4),
	}

	conflicts := FindConflicts("room-1", daterange.MustParse("2025-07-01", "2025-07-10"), intervals)
	require.Len(t, conflicts, 3)
	assert.Equal(t, "first", conflicts[0].BookingID)
	assert.Equal(t, "second", conflicts[1].BookingID)
	assert.Equal(t, "late", conflicts[2].BookingID)

	assert.Empty(t, FindConflicts("room-1", daterange.MustParse("2025-07-04", "2025-07-08"), intervals))
}

func TestStatus_Blocking(t *testing.T) {
	assert.True(t, StatusPending.Blocking())
	assert.True(t, StatusConfirmed.Blocking())
	assert.False(t, StatusCancelled.Blocking())
}
