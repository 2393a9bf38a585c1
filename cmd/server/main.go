package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/internal/ai"
	"go-storefront/internal/analytics"
	"go-storefront/internal/auth"
	"go-storefront/internal/cache"
	"go-storefront/internal/catalog"
	"go-storefront/internal/config"
	"go-storefront/internal/database"
	"go-storefront/internal/handlers"
	"go-storefront/internal/logger"
	"go-storefront/internal/middleware"
	"go-storefront/internal/orders"
	"go-storefront/internal/payment"
	"go-storefront/internal/queue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
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

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}

	// --- Catalog cache: Redis when configured ---
	var catalogCache cache.Cache = cache.Nop{}
	cacheMode := "none"
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.PoolSize)
		if err != nil {
			log.Fatal("redis unavailable", zap.Error(err))
		}
		defer redisCache.Close()
		catalogCache, cacheMode = redisCache, "redis"
	}

	catalogStore := database.NewCatalogStore(db)
	orderStore := database.NewOrderStore(db)
	catalogSvc := catalog.NewService(catalogStore, catalogCache, cfg.Redis.TTL)

	var tracker orders.ConversionTracker
	if t := analytics.NewTracker(cfg.Conversion.Endpoint, cfg.Conversion.AccessToken, cfg.Conversion.Timeout); t.Enabled() {
		tracker = t
	}
	orderSvc := orders.NewService(orderStore, database.NewStockStore(db), catalogSvc, tracker, orders.Shipping{
		FeeHuf:       cfg.Checkout.ShippingFeeHuf,
		FreeAboveHuf: cfg.Checkout.FreeShippingAboveHuf,
	})

	// --- Payment event queue: RabbitMQ when configured, in-process otherwise ---
	var events queue.Publisher
	queueMode := "local"
	if cfg.RabbitMQ.URL != "" {
		mq, err := queue.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Fatal("rabbitmq unavailable", zap.Error(err))
		}
		defer mq.Close()
		events, queueMode = mq, "rabbitmq"
	} else {
		local := queue.NewLocal(orderSvc.ApplyPayment, 2, 256)
		defer local.Close()
		events = local
		log.Warn("RABBITMQ_URL not set, payment events are processed in-process")
	}

	deps := handlers.Deps{
		Catalog:     catalogSvc,
		Orders:      orderSvc,
		Events:      events,
		Products:    catalogStore,
		Users:       database.NewUserStore(db),
		Reports:     database.NewReportStore(db),
		Recent:      orderStore,
		Tokens:      auth.NewSigner(cfg.JWT.Secret, cfg.JWT.TTL),
		Database:    database.NewHealth(db),
		RedirectURL: cfg.Payment.RedirectURL,
		CallbackURL: cfg.Payment.CallbackURL,
		QueueMode:   queueMode,
		CacheMode:   cacheMode,
	}
	if cfg.Payment.POSKey != "" {
		client := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.POSKey, cfg.Payment.PayeeEmail, cfg.Payment.Timeout)
		deps.Payments, deps.Lookup = client, client
	} else {
		log.Warn("PAYMENT_POS_KEY not set, online payment and status lookups are disabled")
	}
	if agent := ai.NewAgent(cfg.AI.GeminiAPIKey, cfg.AI.Model, catalogSvc, catalogStore, database.NewReportStore(db)); agent.Enabled() {
		deps.Assistant = agent
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handlers.New(deps).Routes(r, cfg.Server.AllowRegistration)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.String("base_url", cfg.Server.BaseURL),
		zap.String("queue", queueMode), zap.String("cache", cacheMode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed to start", zap.Error(err))
	}
}
