package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/dto"
	meapp "resortbook/internal/app/handlers/me"
	"resortbook/internal/app/queries"
)

// MeHandler serves the calling guest's own bookings.
type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// ListBookings accepts an optional ?status=PENDING|CONFIRMED|CANCELLED filter.
func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := meapp.ListMyBookingsQuery{
		GuestID: user.ID,
		Status:  strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}
	result, err := queries.Ask[meapp.ListMyBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		errorResponder{Logger: h.Logger, Area: "me"}.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
