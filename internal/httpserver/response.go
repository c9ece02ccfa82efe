package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/payment"
	"ybt-digital/internal/service/checkout"
)

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with the detail kept server-side.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	var missing *domain.MissingFieldsError
	if errors.As(err, &missing) {
		c.JSON(http.StatusBadRequest, gin.H{"message": missing.Error(), "fields": missing.Fields})
		return
	}

	var providerErr *payment.ProviderError
	if errors.As(err, &providerErr) {
		status := http.StatusUnprocessableEntity
		if providerErr.Retryable {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"message": providerErr.Error(), "retryable": providerErr.Retryable})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, payment.ErrUnsupportedGateway),
		errors.Is(err, checkout.ErrProviderRequired),
		errors.Is(err, checkout.ErrAtFirstStage),
		errors.Is(err, checkout.ErrSessionConsumed):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrCouponExpired),
		errors.Is(err, domain.ErrCouponUsageExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrAlreadyFinalized),
		errors.Is(err, checkout.ErrPaymentNotConfirmed):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		logger.Printf("http: unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
