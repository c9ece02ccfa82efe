package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ybt-digital/internal/domain"
)

type createOrderRequest struct {
	SessionID  string `json:"sessionId" binding:"required"`
	CouponCode string `json:"couponCode"`
}

// createOrder freezes the session's cart and shipping form into a persisted
// pending order.
func (h *handlers) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "sessionId is required"})
		return
	}

	session, err := h.deps.Checkout.Get(req.SessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	order, err := h.deps.Orders.Build(c.Request.Context(), session.Cart, session.Shipping, req.CouponCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.deps.Checkout.AttachOrder(session.ID, order.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	order, err := h.deps.Orders.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) && order != nil {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error(), "status": order.Status})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// listFlaggedOrders is the manual-review queue for integrity failures.
func (h *handlers) listFlaggedOrders(c *gin.Context) {
	orders, err := h.deps.OrderStore.ListFlagged(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(orders),
		"results": orders,
	})
}
