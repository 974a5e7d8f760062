package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/smallbiznis/billora/internal/invoice/domain"
	revenuedomain "github.com/smallbiznis/billora/internal/revenue/domain"
)

var (
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrNotFound           = errors.New("not_found")
)

type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.code }

func newValidationError(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", message: message}
}

func invalidRequestError(err error) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", message: err.Error()}
}

// AbortWithError maps domain errors onto HTTP responses.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": apiErr.code, "message": apiErr.message})
		return
	}

	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound), errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, invoicedomain.ErrInvoiceNotPayable),
		errors.Is(err, invoicedomain.ErrInvoiceAlreadyVoid),
		errors.Is(err, revenuedomain.ErrAggregateConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case errors.Is(err, invoicedomain.ErrInvalidCustomer),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrInvalidEffectiveDate),
		errors.Is(err, revenuedomain.ErrInvalidEvent):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
	case errors.Is(err, ErrServiceUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable", "message": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal server error"})
	}
}
