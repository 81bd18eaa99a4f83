package rooms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/shared/money"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func details(name string) Details {
	return Details{
		Name:      name,
		Type:      "Deluxe",
		Capacity:  2,
		Amenities: []string{" WiFi", "wifi", "Balcony", ""},
		Rate:      pricing.RoomRate{PricePerNight: money.Must(19999, "USD"), TaxRatePercent: 10},
	}
}

func TestNewRoom(t *testing.T) {
	room, err := NewRoom(CreateParams{ID: "room-1", Details: details("Ocean View 204"), Active: true, Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, "ocean-view-204", room.Slug)
	assert.Equal(t, TypeDeluxe, room.Type)
	assert.Equal(t, []string{"wifi", "balcony"}, room.Amenities)
	assert.Equal(t, testNow, room.CreatedAt)

	events := room.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, "room.created", events[0].EventName())
}

func TestNewRoom_Validation(t *testing.T) {
	_, err := NewRoom(CreateParams{Details: details("x")})
	assert.ErrorIs(t, err, ErrIDRequired)

	d := details(" ")
	_, err = NewRoom(CreateParams{ID: "r", Details: d})
	assert.ErrorIs(t, err, ErrNameRequired)

	d = details("Room")
	d.Capacity = 0
	_, err = NewRoom(CreateParams{ID: "r", Details: d})
	assert.ErrorIs(t, err, ErrCapacity)

	d = details("Room")
	d.Type = "penthouse"
	_, err = NewRoom(CreateParams{ID: "r", Details: d})
	assert.ErrorIs(t, err, ErrInvalidType)

	d = details("Room")
	d.Rate.TaxRatePercent = 120
	_, err = NewRoom(CreateParams{ID: "r", Details: d})
	assert.ErrorIs(t, err, pricing.ErrInvalidRate)
}

func TestSetActive_RecordsOnlyChanges(t *testing.T) {
	room, err := NewRoom(CreateParams{ID: "room-1", Details: details("Garden"), Active: true, Now: testNow})
	require.NoError(t, err)
	room.ClearEvents()

	room.SetActive(true, testNow)
	assert.Empty(t, room.PendingEvents())

	room.SetActive(false, testNow.Add(time.Hour))
	require.Len(t, room.PendingEvents(), 1)
	assert.Equal(t, "room.deactivated", room.PendingEvents()[0].EventName())
	assert.ErrorIs(t, room.CheckBookable(1), ErrInactive)
}

func TestCheckBookable(t *testing.T) {
	room, err := NewRoom(CreateParams{ID: "room-1", Details: details("Garden"), Active: true, Now: testNow})
	require.NoError(t, err)

	assert.NoError(t, room.CheckBookable(2))
	assert.ErrorIs(t, room.CheckBookable(3), ErrGuestsCount)
}

func TestSearchParams(t *testing.T) {
	room, err := NewRoom(CreateParams{ID: "room-1", Details: details("Ocean View"), Active: true, Now: testNow})
	require.NoError(t, err)

	params := SearchParams{Types: []Type{"DELUXE", ""}, Amenities: []string{"WiFi"}, Query: " OCEAN ", Limit: 500, Sort: "bogus"}.Normalized()
	assert.Equal(t, []Type{TypeDeluxe}, params.Types)
	assert.Equal(t, maxSearchLimit, params.Limit)
	assert.Equal(t, SortByPriceAsc, params.Sort)
	assert.True(t, params.Matches(room))

	assert.False(t, SearchParams{MinCapacity: 3}.Matches(room))
	assert.False(t, SearchParams{PriceMaxCents: 10000}.Matches(room))
	assert.False(t, SearchParams{Amenities: []string{"pool"}}.Matches(room))

	room.SetActive(false, testNow)
	assert.False(t, SearchParams{OnlyActive: true}.Matches(room))
	assert.True(t, SearchParams{}.Matches(room))
}
