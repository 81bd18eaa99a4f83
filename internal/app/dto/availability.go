package dto

import (
	"resortbook/internal/domain/availability"
	"resortbook/internal/domain/shared/daterange"
)

type Interval struct {
	BookingID string       `json:"booking_id"`
	RoomID    string       `json:"room_id"`
	Range     DateRangeDTO `json:"range"`
	Status    string       `json:"status"`
}

type Availability struct {
	RoomID    string       `json:"room_id"`
	Range     DateRangeDTO `json:"range"`
	Available bool         `json:"available"`
	Quote     *QuoteDTO    `json:"quote,omitempty"`
}

type Conflicts struct {
	RoomID    string       `json:"room_id"`
	Range     DateRangeDTO `json:"range"`
	Conflicts []Interval   `json:"conflicts"`
}

type CalendarBlock struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Confirmed bool   `json:"confirmed"`
}

type Calendar struct {
	RoomID     string          `json:"room_id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	FreeNights int             `json:"free_nights"`
	Blocks     []CalendarBlock `json:"blocks"`
}

func MapIntervals(intervals []availability.BookingInterval) []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, i := range intervals {
		out = append(out, Interval{
			BookingID: i.BookingID,
			RoomID:    i.RoomID,
			Range:     MapRange(i.Range),
			Status:    string(i.Status),
		})
	}
	return out
}

func MapCalendar(cal availability.Calendar) Calendar {
	blocks := make([]CalendarBlock, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, CalendarBlock{
			From:      daterange.FormatDate(b.Range.CheckIn),
			To:        daterange.FormatDate(b.Range.CheckOut),
			Confirmed: b.Confirmed,
		})
	}
	return Calendar{
		RoomID:     cal.RoomID,
		From:       daterange.FormatDate(cal.Window.CheckIn),
		To:         daterange.FormatDate(cal.Window.CheckOut),
		FreeNights: cal.FreeNights(),
		Blocks:     blocks,
	}
}
