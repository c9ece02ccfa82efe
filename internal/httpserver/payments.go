package httpserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/payment"
)

type initiatePaymentRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// initiatePayment opens a provider session for a not-yet-paid order, records
// the attempt, and parks the order in awaiting_payment.
func (h *handlers) initiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "provider is required"})
		return
	}

	order, err := h.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if order.Status.IsTerminal() {
		respondError(c, h.logger, domain.ErrAlreadyFinalized)
		return
	}

	gw, err := h.deps.Gateways.Get(req.Provider)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	session, err := gw.Initiate(c.Request.Context(), payment.InitiateRequest{
		OrderID:       order.ID,
		AmountCents:   order.TotalCents,
		Currency:      order.Currency,
		CustomerName:  order.Shipping.Name,
		CustomerEmail: order.Shipping.Email,
		CustomerPhone: order.Shipping.Phone,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	attempt := domain.PaymentAttempt{
		ID:                uuid.NewString(),
		OrderID:           order.ID,
		Provider:          gw.Name(),
		ProviderReference: session.Reference,
		AmountCents:       order.TotalCents,
		Currency:          order.Currency,
		Status:            domain.PaymentStatusInitiated,
		CreatedAt:         h.now(),
	}
	if err := h.deps.OrderStore.CreateAttempt(c.Request.Context(), attempt); err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Re-initiating while already awaiting payment is allowed; the shopper
	// may switch providers. A concurrently finalized order is not.
	applied, err := h.deps.OrderStore.TransitionStatus(c.Request.Context(), order.ID,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusAwaitingPayment},
		domain.OrderStatusAwaitingPayment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !applied {
		respondError(c, h.logger, domain.ErrAlreadyFinalized)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId":   order.ID,
		"attemptId": attempt.ID,
		"session":   session,
	})
}

func (h *handlers) listPayments(c *gin.Context) {
	attempts, err := h.deps.OrderStore.ListAttempts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(attempts),
		"results": attempts,
	})
}

// signatureHeader names the header each provider signs its callbacks with.
func signatureHeader(provider string) string {
	switch provider {
	case "razorpay":
		return "X-Razorpay-Signature"
	case "stripe":
		return "Stripe-Signature"
	case "paypal":
		return "Paypal-Webhook-Token"
	default:
		return ""
	}
}

// handleWebhook verifies a provider callback and hands the result to
// reconciliation. Unverifiable callbacks are discarded with a 400 and never
// touch order state. A verified result is always acknowledged with a 200,
// whether it just applied or arrived as a duplicate.
func (h *handlers) handleWebhook(c *gin.Context) {
	providerName := c.Param("provider")
	gw, err := h.deps.Gateways.Get(providerName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable body"})
		return
	}

	result, err := gw.VerifyCallback(body, c.GetHeader(signatureHeader(providerName)))
	if err != nil {
		h.logger.Printf("webhook: provider=%s rejected: %v", providerName, err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "callback rejected"})
		return
	}

	order, outcome, err := h.deps.Reconciler.ReconcileByReference(c.Request.Context(), *result)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId": order.ID,
		"status":  order.Status,
		"outcome": outcome,
	})
}
