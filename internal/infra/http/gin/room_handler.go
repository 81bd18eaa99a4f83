package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/dto"
	roomsapp "resortbook/internal/app/handlers/rooms"
	"resortbook/internal/app/queries"
)

// RoomHandler serves the public room catalog.
type RoomHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h RoomHandler) responder() errorResponder {
	return errorResponder{Logger: h.Logger, Area: "room"}
}

// Catalog responds with a filtered page of active rooms.
func (h RoomHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "room handler")
		return
	}
	query := roomsapp.SearchRoomsQuery{SearchFilters: searchFilters(c)}
	result, err := queries.Ask[roomsapp.SearchRoomsQuery, dto.RoomCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "room handler")
		return
	}
	result, err := queries.Ask[roomsapp.GetRoomQuery, dto.Room](c.Request.Context(), h.Queries, roomsapp.GetRoomQuery{ID: c.Param("id")})
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a stay without checking availability.
func (h RoomHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "room handler")
		return
	}
	query := roomsapp.QuoteQuery{
		RoomID:   c.Param("id"),
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
	}
	result, err := queries.Ask[roomsapp.QuoteQuery, dto.QuoteDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func searchFilters(c *gin.Context) roomsapp.SearchFilters {
	limit, offset := page(c, 24)
	return roomsapp.SearchFilters{
		Types:         splitCSV(c.Query("type")),
		Amenities:     splitCSV(c.Query("amenities")),
		MinCapacity:   queryNumber(c, "min_capacity", 0),
		PriceMinCents: queryNumber[int64](c, "price_min_cents", 0),
		PriceMaxCents: queryNumber[int64](c, "price_max_cents", 0),
		Query:         c.Query("q"),
		Sort:          c.Query("sort"),
		Limit:         limit,
		Offset:        offset,
	}
}
