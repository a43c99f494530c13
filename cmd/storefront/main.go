package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/lifecycle"
	"github.com/fjod/go_storefront/internal/notify"
	"github.com/fjod/go_storefront/internal/repository/mongo"
	"github.com/fjod/go_storefront/internal/repository/postgres"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load("storefront")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// Orders: postgres
	repo, err := postgres.NewRepository(startCtx, &cfg.Postgres)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer repo.Close()
	if err := repo.RunMigrations(&cfg.Postgres); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Catalog, carts, users: mongo
	db, err := mongo.ConnectMongoDB(startCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()
	cartRepo := mongo.NewCartRepository(db)
	if err := cartRepo.CreateIndexes(startCtx); err != nil {
		log.Fatal("failed to create cart indexes", zap.Error(err))
	}
	catalogRepo := mongo.NewCatalogRepository(db)
	userRepo := mongo.NewUserRepository(db)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()
	if err := redisClient.Ping(startCtx).Err(); err != nil {
		log.Warn("redis unavailable, cache calls will fail over to storage", zap.Error(err))
	}
	redisCache := cache.NewRedisCache(redisClient, cfg.CartCacheTTL)

	publisher := events.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail, log)
	} else {
		log.Warn("SENDGRID_API_KEY not set, order confirmations disabled")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid ANALYTICS_TIMEZONE", zap.Error(err))
	}

	cartSvc := service.NewCartService(cartRepo, redisCache, catalogRepo, cfg.Pricing, log)
	checkoutSvc := service.NewCheckoutService(cartSvc, repo, publisher, notifier, cfg.Pricing, cfg.Currency, log)
	orderSvc := service.NewOrderService(repo, lifecycle.New(nil), publisher, log)
	analyticsSvc := service.NewAnalyticsService(repo, catalogRepo, userRepo, redisCache,
		service.AnalyticsConfig{Days: cfg.AnalyticsDays, Location: loc, Options: analytics.Options{}}, log)

	router := h.NewRouter(
		h.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
			Logger:             log,
		},
		h.Handlers{
			Products:  h.NewProductHandler(catalogRepo, cfg.RequestTimeout),
			Cart:      h.NewCartHandler(cartSvc, cfg.RequestTimeout),
			Checkout:  h.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout),
			Orders:    h.NewOrdersHandler(orderSvc, cfg.RequestTimeout),
			Analytics: h.NewAnalyticsHandler(analyticsSvc, cfg.RequestTimeout),
		},
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, cfg.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
