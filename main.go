package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/cache"
	"storefront/config"
	"storefront/consumers"
	"storefront/controllers"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/rabbitmq"
	"storefront/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.InitLogger(cfg.LogLevel, cfg.AppEnv, "storefront"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.GetLogger()
	defer func() { _ = l.Sync() }()

	if cfg.JWTSecret == "" {
		l.Warn("JWT_SECRET is empty; every API request will be rejected")
	}

	if err := database.InitDB(cfg); err != nil {
		l.Fatal("Database initialization failed", zap.Error(err))
	}
	defer database.CloseDB()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, database.DB)
	cancel()
	if err != nil {
		l.Fatal("Database migration failed", zap.Error(err))
	}

	store := database.NewStore(database.DB)
	var (
		catalogSource services.CatalogSource = store
		promoSource   services.PromoSource   = store
		tierWriter    services.TierWriter    = store
	)
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			l.Warn("Redis unavailable, serving catalog without cache", zap.Error(err))
		} else {
			defer client.Close()
			c := cache.NewCatalogCache(client, store, store, store, cfg.CacheTTL)
			catalogSource, promoSource, tierWriter = c, c, c
		}
	}

	orderService := &services.OrderService{
		Catalog:           catalogSource,
		Promos:            promoSource,
		Orders:            store,
		Policy:            cfg.Pricing,
		PaymentCheckDelay: cfg.PaymentCheckDelay,
	}

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		l.Fatal("RabbitMQ initialization failed", zap.Error(err))
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		l.Fatal("Failed to setup RabbitMQ queues", zap.Error(err))
	}
	orderService.Events = rmq

	if err := consumers.StartOrderConsumer(rmq.Channel, cfg, orderService); err != nil {
		l.Fatal("Failed to start order consumer", zap.Error(err))
	}

	controllers.SetServices(controllers.Services{
		Selection: &services.SelectionService{Catalog: catalogSource, Promos: promoSource, Policy: cfg.Pricing},
		Orders:    orderService,
		Promos:    &services.PromoService{Promos: promoSource, Policy: cfg.Pricing},
		Catalog:   &services.CatalogService{Catalog: catalogSource, Tiers: tierWriter},
	})

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	controllers.RegisterRoutes(api)

	r.POST("/dead-letter", controllers.HandleDeadLetter)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		l.Info("Storefront starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("Graceful shutdown failed", zap.Error(err))
	}
}
