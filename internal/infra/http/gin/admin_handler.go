package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/commands"
	"resortbook/internal/app/dto"
	auditapp "resortbook/internal/app/handlers/audit"
	availabilityapp "resortbook/internal/app/handlers/availability"
	bookingapp "resortbook/internal/app/handlers/booking"
	roomsapp "resortbook/internal/app/handlers/rooms"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
)

// AdminHandler is the back-office surface. The route group is guarded by the admin
// role and the buses check it again per message.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) responder() errorResponder {
	return errorResponder{Logger: h.Logger, Area: "admin"}
}

func (h AdminHandler) ready(c *gin.Context) bool {
	if _, ok := requireRole(c, reqctx.RoleAdmin); !ok {
		return false
	}
	if h.Commands == nil || h.Queries == nil {
		unavailable(c, "admin handler")
		return false
	}
	return true
}

func (h AdminHandler) ListRooms(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	query := roomsapp.ListRoomsQuery{SearchFilters: searchFilters(c)}
	result, err := queries.Ask[roomsapp.ListRoomsQuery, dto.RoomCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) CreateRoom(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var cmd roomsapp.CreateRoomCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.responder().badRequest(c, err)
		return
	}
	result, err := commands.Dispatch[roomsapp.CreateRoomCommand, dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminHandler) UpdateRoom(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var input roomsapp.RoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder().badRequest(c, err)
		return
	}
	cmd := roomsapp.UpdateRoomCommand{ID: c.Param("id"), RoomInput: input}
	result, err := commands.Dispatch[roomsapp.UpdateRoomCommand, dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) DeleteRoom(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	cmd := roomsapp.DeleteRoomCommand{ID: c.Param("id")}
	if _, err := commands.Dispatch[roomsapp.DeleteRoomCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) ActivateRoom(c *gin.Context) {
	h.setActive(c, true)
}

func (h AdminHandler) DeactivateRoom(c *gin.Context) {
	h.setActive(c, false)
}

func (h AdminHandler) setActive(c *gin.Context, active bool) {
	if !h.ready(c) {
		return
	}
	cmd := roomsapp.SetRoomActiveCommand{ID: c.Param("id"), Active: active}
	result, err := commands.Dispatch[roomsapp.SetRoomActiveCommand, dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Conflicts lists the blocking bookings overlapping [check_in, check_out).
func (h AdminHandler) Conflicts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	query := availabilityapp.ListConflictsQuery{
		RoomID:   c.Param("id"),
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
	}
	result, err := queries.Ask[availabilityapp.ListConflictsQuery, dto.Conflicts](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListBookings(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, offset := page(c, 50)
	query := bookingapp.ListBookingsQuery{
		RoomID: c.Query("room_id"),
		Status: strings.ToUpper(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ConfirmBooking(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	cmd := bookingapp.ConfirmBookingCommand{BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.ConfirmBookingCommand, dto.BookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) CancelBooking(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	BookingHandler{Commands: h.Commands, Logger: h.Logger}.cancel(c)
}

func (h AdminHandler) Audit(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, offset := page(c, 100)
	query := auditapp.ListAuditQuery{
		BookingID: c.Query("booking_id"),
		RoomID:    c.Query("room_id"),
		Limit:     limit,
		Offset:    offset,
	}
	result, err := queries.Ask[auditapp.ListAuditQuery, dto.AuditCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.responder().handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
