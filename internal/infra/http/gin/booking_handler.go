package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/dto"
	bookingapp "resortbook/internal/app/handlers/booking"
	"resortbook/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	RoomID     string `json:"room_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	Notes      string `json:"notes"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) responder() errorResponder {
	return errorResponder{Logger: h.Logger, Area: "booking"}
}

// Create requests a booking for the calling guest. The booking starts PENDING.
func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder().badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		RoomID:          req.RoomID,
		GuestID:         user.ID,
		GuestName:       firstNonEmpty(req.GuestName, user.Name),
		GuestEmail:      firstNonEmpty(req.GuestEmail, user.Email),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Notes:           req.Notes,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	if _, ok := requireRole(c, ""); !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{BookingID: c.Param("id")})
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cancel releases the nights of a booking. Guests may only cancel their own.
func (h BookingHandler) Cancel(c *gin.Context) {
	if _, ok := requireRole(c, ""); !ok {
		return
	}
	h.cancel(c)
}

func (h BookingHandler) cancel(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.responder().badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, dto.BookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
