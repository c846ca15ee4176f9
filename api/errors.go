package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/gin-gonic/gin"
)

// IsConflict reports errors caused by the current state of a record rather
// than by the request itself.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrSeatUnavailable) ||
		errors.Is(err, domain.ErrFlightExists) ||
		errors.Is(err, domain.ErrFlightHasBookings) ||
		errors.Is(err, domain.ErrCancellationPending) ||
		errors.Is(err, domain.ErrPartialApproval)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
