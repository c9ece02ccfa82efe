package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/service/checkout"
)

type createSessionRequest struct {
	Cart domain.CartSnapshot `json:"cart"`
}

type advanceRequest struct {
	Cart     *domain.CartSnapshot `json:"cart"`
	Shipping *domain.ShippingInfo `json:"shipping"`
	Provider string               `json:"provider"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	session := h.deps.Checkout.Create(req.Cart)
	c.JSON(http.StatusCreated, session)
}

func (h *handlers) getSession(c *gin.Context) {
	session, err := h.deps.Checkout.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// advanceSession applies the submitted stage inputs and moves one stage
// forward. Validation failures leave the session exactly where it was.
func (h *handlers) advanceSession(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	session, err := h.deps.Checkout.Advance(c.Request.Context(), c.Param("id"), checkout.StageInput{
		Cart:     req.Cart,
		Shipping: req.Shipping,
		Provider: req.Provider,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *handlers) retreatSession(c *gin.Context) {
	session, err := h.deps.Checkout.Retreat(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
