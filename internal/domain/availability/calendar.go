package availability

import (
	"sort"

	"resortbook/internal/domain/shared/daterange"
)

// Block is a span of nights a room cannot be booked for.
type Block struct {
	Range daterange.DateRange
	// Confirmed is false when any booking behind the block is still pending.
	Confirmed bool
}

type Calendar struct {
	RoomID string
	Window daterange.DateRange
	Blocks []Block
}

// BuildCalendar clips blocking intervals to the window and merges touching ones.
func BuildCalendar(roomID string, window daterange.DateRange, intervals []BookingInterval) Calendar {
	cal := Calendar{RoomID: roomID, Window: window}
	blocking := FindConflicts(roomID, window, intervals)
	for _, interval := range blocking {
		clipped := clip(interval.Range, window)
		confirmed := interval.Status == StatusConfirmed
		if n := len(cal.Blocks); n > 0 {
			if merged, ok := cal.Blocks[n-1].Range.Merge(clipped); ok {
				cal.Blocks[n-1].Range = merged
				cal.Blocks[n-1].Confirmed = cal.Blocks[n-1].Confirmed && confirmed
				continue
			}
		}
		cal.Blocks = append(cal.Blocks, Block{Range: clipped, Confirmed: confirmed})
	}
	sort.SliceStable(cal.Blocks, func(i, j int) bool {
		return cal.Blocks[i].Range.CheckIn.Before(cal.Blocks[j].Range.CheckIn)
	})
	return cal
}

// FreeNights counts the nights in the window not covered by any block.
func (c Calendar) FreeNights() int {
	free := c.Window.Nights()
	for _, b := range c.Blocks {
		free -= b.Range.Nights()
	}
	return free
}

func clip(r, window daterange.DateRange) daterange.DateRange {
	out := r
	if out.CheckIn.Before(window.CheckIn) {
		out.CheckIn = window.CheckIn
	}
	if out.CheckOut.After(window.CheckOut) {
		out.CheckOut = window.CheckOut
	}
	return out
}
