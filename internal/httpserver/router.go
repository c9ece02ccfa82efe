package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/payment"
	"ybt-digital/internal/repository/order"
	"ybt-digital/internal/service/checkout"
	couponsvc "ybt-digital/internal/service/coupon"
	"ybt-digital/internal/service/reconcile"
)

type productLister interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
}

type couponEvaluator interface {
	EvaluateCode(ctx context.Context, code string, subtotalCents int64, now time.Time) (couponsvc.Evaluation, error)
}

type orderService interface {
	Build(ctx context.Context, cart domain.CartSnapshot, shipping domain.ShippingInfo, couponCode string) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}

type orderStore interface {
	ListFlagged(ctx context.Context) ([]domain.Order, error)
	CreateAttempt(ctx context.Context, attempt domain.PaymentAttempt) error
	ListAttempts(ctx context.Context, orderID string) ([]domain.PaymentAttempt, error)
	TransitionStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
}

type reconciler interface {
	ReconcileByReference(ctx context.Context, result payment.Result) (*domain.Order, reconcile.Outcome, error)
}

// Deps carries the storefront collaborators the handlers dispatch to.
type Deps struct {
	Products   productLister
	Coupons    couponEvaluator
	Orders     orderService
	OrderStore orderStore
	Checkout   *checkout.Manager
	Gateways   payment.Registry
	Reconciler reconciler
}

var _ orderStore = (order.Repository)(nil)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders,
		"Authorization", "X-Razorpay-Signature", "Stripe-Signature", "Paypal-Webhook-Token")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger, now: time.Now}

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.GET("/validate-coupon", h.validateCoupon)

		api.POST("/checkout/sessions", h.createSession)
		api.GET("/checkout/sessions/:id", h.getSession)
		api.POST("/checkout/sessions/:id/advance", h.advanceSession)
		api.POST("/checkout/sessions/:id/back", h.retreatSession)

		api.POST("/orders", h.createOrder)
		api.GET("/orders/flagged", h.listFlaggedOrders)
		api.GET("/orders/:id", h.getOrder)
		api.POST("/orders/:id/cancel", h.cancelOrder)
		api.GET("/orders/:id/payments", h.listPayments)
		api.POST("/orders/:id/payments", h.initiatePayment)

		api.POST("/webhooks/:provider", h.handleWebhook)
	}

	return router
}

type handlers struct {
	deps   Deps
	logger *log.Logger
	now    func() time.Time
}
