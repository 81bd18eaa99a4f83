package dto

import (
	"time"

	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/rooms"
)

type RoomSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Booking struct {
	ID         string       `json:"id"`
	Room       RoomSnapshot `json:"room"`
	GuestID    string       `json:"guest_id"`
	GuestName  string       `json:"guest_name,omitempty"`
	GuestEmail string       `json:"guest_email,omitempty"`
	Range      DateRangeDTO `json:"range"`
	Guests     int          `json:"guests"`
	Status     string       `json:"status"`
	Quote      QuoteDTO     `json:"quote"`
	Notes      string       `json:"notes,omitempty"`
	CancelNote string       `json:"cancel_note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
	Total int       `json:"total"`
}

// BookingResult is returned by booking commands. Changed is false for idempotent
// confirm/cancel calls that found the booking already in the target status.
type BookingResult struct {
	Booking Booking `json:"booking"`
	Changed bool    `json:"changed"`
}

// MapBooking maps b; room may be nil when it has since been deleted.
func MapBooking(b *booking.Booking, room *rooms.Room) Booking {
	snapshot := RoomSnapshot{ID: string(b.RoomID)}
	if room != nil {
		snapshot.Name = room.Name
		snapshot.Type = string(room.Type)
	}
	return Booking{
		ID:         string(b.ID),
		Room:       snapshot,
		GuestID:    b.GuestID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		Range:      MapRange(b.Range),
		Guests:     b.Guests,
		Status:     string(b.Status),
		Quote:      MapQuote(b.Quote),
		Notes:      b.Notes,
		CancelNote: b.CancelNote,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
