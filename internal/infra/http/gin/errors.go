package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/dto"
	"resortbook/internal/app/middleware"
	"resortbook/internal/app/uow"
	"resortbook/internal/domain/booking"
	"resortbook/internal/domain/pricing"
	"resortbook/internal/domain/rooms"
	"resortbook/internal/domain/shared/daterange"
	"resortbook/internal/domain/shared/money"
)

// errorClass is the HTTP status and stable machine code an error is reported with.
type errorClass struct {
	status int
	code   string
}

var sentinelClasses = []struct {
	target error
	class  errorClass
}{
	{middleware.ErrUnauthenticated, errorClass{http.StatusUnauthorized, "unauthenticated"}},
	{middleware.ErrForbidden, errorClass{http.StatusForbidden, "forbidden"}},
	{booking.ErrBookingNotOwned, errorClass{http.StatusForbidden, "forbidden"}},
	{middleware.ErrValidation, errorClass{http.StatusBadRequest, "validation_failed"}},
	{daterange.ErrInvalidRange, errorClass{http.StatusBadRequest, "invalid_range"}},
	{pricing.ErrInvalidRate, errorClass{http.StatusBadRequest, "invalid_rate"}},
	{booking.ErrCheckInInPast, errorClass{http.StatusBadRequest, "check_in_in_past"}},
	{booking.ErrInvalidGuests, errorClass{http.StatusBadRequest, "invalid_guests"}},
	{booking.ErrGuestRequired, errorClass{http.StatusBadRequest, "guest_required"}},
	{rooms.ErrGuestsCount, errorClass{http.StatusBadRequest, "guests_exceed_capacity"}},
	{rooms.ErrInvalidType, errorClass{http.StatusBadRequest, "invalid_room_type"}},
	{rooms.ErrNameRequired, errorClass{http.StatusBadRequest, "name_required"}},
	{rooms.ErrCapacity, errorClass{http.StatusBadRequest, "invalid_capacity"}},
	{rooms.ErrIDRequired, errorClass{http.StatusBadRequest, "id_required"}},
	{money.ErrInvalidAmount, errorClass{http.StatusBadRequest, "invalid_amount"}},
	{money.ErrInvalidCurrency, errorClass{http.StatusBadRequest, "invalid_currency"}},
	{money.ErrCurrencyMismatch, errorClass{http.StatusBadRequest, "currency_mismatch"}},
	{rooms.ErrNotFound, errorClass{http.StatusNotFound, "room_not_found"}},
	{booking.ErrBookingNotFound, errorClass{http.StatusNotFound, "booking_not_found"}},
	{booking.ErrRoomUnavailable, errorClass{http.StatusConflict, "room_unavailable"}},
	{booking.ErrInvalidTransition, errorClass{http.StatusConflict, "invalid_transition"}},
	{booking.ErrRangeImmutable, errorClass{http.StatusConflict, "range_immutable"}},
	{booking.ErrVersionConflict, errorClass{http.StatusConflict, "version_conflict"}},
	{rooms.ErrVersionConflict, errorClass{http.StatusConflict, "version_conflict"}},
	{uow.ErrCommitConflict, errorClass{http.StatusConflict, "concurrency_conflict"}},
	{rooms.ErrSlugDuplicate, errorClass{http.StatusConflict, "slug_taken"}},
	{rooms.ErrHasBookings, errorClass{http.StatusConflict, "room_has_bookings"}},
	{rooms.ErrInactive, errorClass{http.StatusUnprocessableEntity, "room_inactive"}},
}

func classify(err error) errorClass {
	for _, entry := range sentinelClasses {
		if errors.Is(err, entry.target) {
			return entry.class
		}
	}
	return errorClass{http.StatusInternalServerError, "internal"}
}

// errorResponder renders bus errors with the shared status mapping.
type errorResponder struct {
	Logger *slog.Logger
	Area   string
}

func (r errorResponder) handleError(c *gin.Context, err error) {
	class := classify(err)
	body := gin.H{"error": err.Error(), "code": class.code}
	if class.status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}

	var validation *middleware.ValidationError
	if errors.As(err, &validation) {
		body["violations"] = validation.Violations
	}
	if conflicts, ok := booking.ConflictsOf(err); ok {
		body["conflicts"] = dto.MapIntervals(conflicts)
		var concurrent *booking.ConcurrencyConflictError
		if errors.As(err, &concurrent) {
			body["code"] = "concurrency_conflict"
		}
	}
	r.respondWithError(c, class.status, err, body)
}

func (r errorResponder) respondWithError(c *gin.Context, status int, err error, body gin.H) {
	if r.Logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "user_id", p.ID)
		}
		if status >= http.StatusInternalServerError {
			r.Logger.Error(r.Area+" request failed", fields...)
		} else {
			r.Logger.Debug(r.Area+" request rejected", fields...)
		}
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

func (r errorResponder) badRequest(c *gin.Context, err error) {
	r.respondWithError(c, http.StatusBadRequest, err, gin.H{"error": err.Error(), "code": "bad_request"})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " unavailable", "code": "unavailable"})
}
