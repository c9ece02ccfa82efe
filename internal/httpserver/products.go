package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Products.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(products),
		"results": products,
	})
}

// validateCoupon is the live discount preview. It never reserves a use.
func (h *handlers) validateCoupon(c *gin.Context) {
	code := c.Query("code")
	subtotal, err := strconv.ParseInt(c.Query("subtotal"), 10, 64)
	if err != nil || subtotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "subtotal must be a non-negative integer of cents"})
		return
	}

	eval, err := h.deps.Coupons.EvaluateCode(c.Request.Context(), code, subtotal, h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          eval.Coupon.Code,
		"discountType":  eval.Coupon.DiscountType,
		"discountCents": eval.DiscountCents,
	})
}
