// Command worker applies payment events from RabbitMQ to orders.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"go-storefront/internal/analytics"
	"go-storefront/internal/cache"
	"go-storefront/internal/catalog"
	"go-storefront/internal/config"
	"go-storefront/internal/database"
	"go-storefront/internal/logger"
	"go-storefront/internal/orders"
	"go-storefront/internal/queue"

	"go.uber.org/zap"
)

func main() {
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.RabbitMQ.URL == "" {
		log.Fatal("RABBITMQ_URL is required for the worker")
	}

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}

	// Checkout is not served here, so the catalog never needs a cache.
	catalogSvc := catalog.NewService(database.NewCatalogStore(db), cache.Nop{}, 0)

	var tracker orders.ConversionTracker
	if t := analytics.NewTracker(cfg.Conversion.Endpoint, cfg.Conversion.AccessToken, cfg.Conversion.Timeout); t.Enabled() {
		tracker = t
	}
	orderSvc := orders.NewService(database.NewOrderStore(db), database.NewStockStore(db), catalogSvc, tracker, orders.Shipping{
		FeeHuf:       cfg.Checkout.ShippingFeeHuf,
		FreeAboveHuf: cfg.Checkout.FreeShippingAboveHuf,
	})

	mq, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatal("rabbitmq unavailable", zap.Error(err))
	}
	defer mq.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mq.Consume(ctx, orderSvc.ApplyPayment); err != nil {
		log.Fatal("payment worker stopped", zap.Error(err))
	}
	log.Info("payment worker stopped")
}
