package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apexhq/shipdash-backend/api/routes"
	"github.com/apexhq/shipdash-backend/internal/apex"
	"github.com/apexhq/shipdash-backend/internal/orderbook"
	"github.com/apexhq/shipdash-backend/pkg/cache"
	"github.com/apexhq/shipdash-backend/pkg/clock"
	"github.com/apexhq/shipdash-backend/pkg/config"
	"github.com/apexhq/shipdash-backend/pkg/logger"
	"github.com/apexhq/shipdash-backend/pkg/metrics"
	"github.com/apexhq/shipdash-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	clk := clock.New()

	var (
		store       cache.Store
		redisClient *redis.Client
	)
	if cfg.Cache.IsRedis() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store, err = cache.NewRedis(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create redis cache", err)
			os.Exit(1)
		}
	} else {
		store = cache.NewMemory(cfg.Cache.MaxEntries, clk)
	}

	registry := prometheus.NewRegistry()
	fetchMetrics := metrics.NewFetchMetrics(registry)

	apexClient, err := apex.NewClient(cfg.Apex, cfg.Cache, store, logg, fetchMetrics, clk)
	if err != nil {
		logg.Error(context.Background(), "failed to create upstream client", err)
		os.Exit(1)
	}

	book, err := orderbook.NewBook(apexClient, store, logg, fetchMetrics, clk)
	if err != nil {
		logg.Error(context.Background(), "failed to create order store", err)
		os.Exit(1)
	}

	// Warm the store in the background so the first dashboard request does not
	// pay for the full sweep.
	go func() {
		if err := book.Refresh(context.Background()); err != nil {
			logg.Warn(context.Background(), "initial order sweep failed, serving empty store until refresh")
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"cache_backend": cfg.Cache.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, book, redisClient, registry, clk),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
