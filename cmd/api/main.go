package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ybt-digital/internal/config"
	"ybt-digital/internal/db"
	"ybt-digital/internal/httpserver"
	"ybt-digital/internal/payment"
	couponrepo "ybt-digital/internal/repository/coupon"
	orderrepo "ybt-digital/internal/repository/order"
	productrepo "ybt-digital/internal/repository/product"
	"ybt-digital/internal/service/checkout"
	couponsvc "ybt-digital/internal/service/coupon"
	ordersvc "ybt-digital/internal/service/order"
	"ybt-digital/internal/service/reconcile"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	couponRepo := couponrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	couponService := couponsvc.New(couponRepo)
	orderService, err := ordersvc.New(productRepo, orderRepo, couponService, cfg.TaxRate, cfg.Currency, logger)
	if err != nil {
		logger.Fatalf("init order service: %v", err)
	}
	checkoutManager := checkout.NewManager(orderRepo)

	gateways := payment.NewRegistry(
		payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookKey, cfg.StripeAPIBaseURL),
		payment.NewPayPal(cfg.PayPalClientID, cfg.PayPalWebhookKey),
	)

	unlocker := reconcile.LogUnlocker(logger)
	if cfg.EntitlementURL != "" {
		unlocker = reconcile.NewHTTPUnlocker(cfg.EntitlementURL, nil)
	}
	reconciler := reconcile.New(orderRepo, couponService, unlocker, logger)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Products:   productRepo,
		Coupons:    couponService,
		Orders:     orderService,
		OrderStore: orderRepo,
		Checkout:   checkoutManager,
		Gateways:   gateways,
		Reconciler: reconciler,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
