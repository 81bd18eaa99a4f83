package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/dto"
	availabilityapp "resortbook/internal/app/handlers/availability"
	"resortbook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) responder() errorResponder {
	return errorResponder{Logger: h.Logger, Area: "availability"}
}

// Check answers whether the room is free for [check_in, check_out) and quotes it.
func (h AvailabilityHandler) Check(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "availability handler")
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{
		RoomID:   c.Param("id"),
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
		Guests:   queryNumber(c, "guests", 0),
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "availability handler")
		return
	}
	query := availabilityapp.GetCalendarQuery{RoomID: c.Param("id"), From: c.Query("from"), To: c.Query("to")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
