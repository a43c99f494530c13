package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/repository/mongo"
	"github.com/fjod/go_storefront/internal/repository/postgres"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load("analytics-worker")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	log.Info("analytics-worker starting...")

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	repo, err := postgres.NewRepository(startCtx, &cfg.Postgres)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer repo.Close()

	db, err := mongo.ConnectMongoDB(startCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer func() { _ = db.Client().Disconnect(context.Background()) }()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid ANALYTICS_TIMEZONE", zap.Error(err))
	}

	svc := service.NewAnalyticsService(
		repo,
		mongo.NewCatalogRepository(db),
		mongo.NewUserRepository(db),
		cache.NewRedisCache(redisClient, cfg.CartCacheTTL),
		service.AnalyticsConfig{Days: cfg.AnalyticsDays, Location: loc, Options: analytics.Options{}},
		log,
	)
	runner := svc.NewRunner()

	ctx, cancel := context.WithCancel(context.Background())

	// Warm the cache so the API has a report before the first event arrives.
	if in, err := svc.LoadInput(ctx); err != nil {
		log.Error("initial analytics load failed", zap.Error(err))
	} else {
		runner.Submit(ctx, in)
	}

	consumer := events.NewConsumer(svc.OnOrderEvent(runner), log, cfg.OrderEventsTopic, cfg.AnalyticsGroupID, cfg.KafkaBrokers...)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down analytics worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		runner.Close()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("consumer didn't stop in time")
	}

	consumer.Close()
	log.Info("analytics worker stopped")
}
