package booking

import (
	"time"

	"resortbook/internal/domain/rooms"
)

type BookingRequested struct {
	BookingID BookingID    `json:"booking_id"`
	RoomID    rooms.RoomID `json:"room_id"`
	GuestID   string       `json:"guest_id"`
	CheckIn   time.Time    `json:"check_in"`
	CheckOut  time.Time    `json:"check_out"`
	Guests    int          `json:"guests"`
	Total     int64        `json:"total"`
	Currency  string       `json:"currency"`
	At        time.Time    `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID    `json:"booking_id"`
	RoomID    rooms.RoomID `json:"room_id"`
	CheckIn   time.Time    `json:"check_in"`
	CheckOut  time.Time    `json:"check_out"`
	At        time.Time    `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID    `json:"booking_id"`
	RoomID    rooms.RoomID `json:"room_id"`
	Reason    string       `json:"reason"`
	At        time.Time    `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
