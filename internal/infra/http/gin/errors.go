package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	listingapp "tinyhouse/internal/app/handlers/listings"
	meapp "tinyhouse/internal/app/handlers/me"
	"tinyhouse/internal/app/middleware"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/services/auth"
	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/domain/calendar"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/validation"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainbooking.ErrPersistenceInconsistent, http.StatusInternalServerError, "persistence_inconsistent"},
	{domainbooking.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domainbooking.ErrNotFound, http.StatusNotFound, "not_found"},
	{domainbooking.ErrBookingNotFound, http.StatusNotFound, "not_found"},
	{domainlistings.ErrNotFound, http.StatusNotFound, "not_found"},
	{domainuser.ErrNotFound, http.StatusNotFound, "not_found"},
	{domainbooking.ErrSelfBookingForbidden, http.StatusForbidden, "self_booking_forbidden"},
	{domainbooking.ErrWindowExceeded, http.StatusBadRequest, "window_exceeded"},
	{domainbooking.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
	{calendar.ErrConflict, http.StatusConflict, "dates_unavailable"},
	{domainbooking.ErrHostNotPayable, http.StatusUnprocessableEntity, "host_not_payable"},
	{domainbooking.ErrPaymentDeclined, http.StatusPaymentRequired, "payment_declined"},
	{domainbooking.ErrContention, http.StatusConflict, "contention"},
	{validation.ErrInvalid, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
	{domainlistings.ErrTitleRequired, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrTitleTooLong, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrDescriptionLong, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrInvalidType, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrNegativePrice, http.StatusBadRequest, "invalid_input"},
	{domainlistings.ErrGuestsLimit, http.StatusBadRequest, "invalid_input"},
	{listingapp.ErrInvalidImage, http.StatusBadRequest, "invalid_image"},
	{listingapp.ErrNoCountry, http.StatusBadRequest, "no_country"},
	{meapp.ErrWalletAlreadyConnected, http.StatusConflict, "wallet_connected"},
	{policies.ErrConnectFailed, http.StatusBadGateway, "wallet_connect_failed"},
}

// classify maps err to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes the error body. Inconsistent bookings carry the booking and
// charge ids so clients can contact support.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	body := gin.H{"error": err.Error(), "code": code}
	if status == http.StatusInternalServerError && code == "internal" {
		body["error"] = "internal error"
	}
	if errors.Is(err, domainbooking.ErrPersistenceInconsistent) {
		body["reconciliation_required"] = true
		var details middleware.ReplayDetailer
		if errors.As(err, &details) {
			ids := details.ReplayDetails()
			body["booking_id"] = ids["booking_id"]
			body["charge_id"] = ids["charge_id"]
		}
	}
	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", code, "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, body)
}
