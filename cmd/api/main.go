package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seemyown/StockController/api/controllers"
	"github.com/seemyown/StockController/api/routes"
	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/internal/cities"
	"github.com/seemyown/StockController/internal/items"
	"github.com/seemyown/StockController/internal/stocks"
	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/enums"
	"github.com/seemyown/StockController/pkg/idgen"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/metrics"
	"github.com/seemyown/StockController/pkg/migrate"
	"github.com/seemyown/StockController/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		redisPinger controllers.Pinger
	)
	if cfg.Redis.Enabled() {
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
		redisPinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured; reconciliation history disabled")
	}

	ids, err := idgen.NewRandom(cfg.Inventory.IDMin, cfg.Inventory.IDMax)
	if err != nil {
		logg.Error(context.Background(), "failed to create id generator", err)
		os.Exit(1)
	}
	currency, err := enums.ParseCurrency(cfg.Inventory.DefaultCurrency)
	if err != nil {
		logg.Error(context.Background(), "invalid default currency", err)
		os.Exit(1)
	}

	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)

	reconcilerParams := capacity.ReconcilerParams{
		DB:                 dbClient,
		Repo:               capacity.NewRepository(dbClient.DB()),
		Logger:             logg,
		Metrics:            inventoryMetrics,
		RecomputeFreeSpace: cfg.Inventory.RecomputeFreeSpace,
	}
	if redisClient != nil {
		reconcilerParams.Marker = redisClient
	}
	reconciler, err := capacity.NewReconciler(reconcilerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create capacity reconciler", err)
		os.Exit(1)
	}

	cityRepo := cities.NewRepository(dbClient.DB())
	cityService, err := cities.NewService(dbClient, cityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create city service", err)
		os.Exit(1)
	}

	stockService, err := stocks.NewService(stocks.ServiceParams{
		DB:         dbClient,
		Repo:       stocks.NewRepository(dbClient.DB()),
		Cities:     cityRepo,
		IDs:        ids,
		CodeLength: cfg.Inventory.StockCodeLength,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	itemService, err := items.NewService(items.ServiceParams{
		DB:              dbClient,
		Repo:            items.NewRepository(dbClient.DB()),
		Reconciler:      reconciler,
		IDs:             ids,
		BarcodeLength:   cfg.Inventory.BarcodeLength,
		DefaultCurrency: currency,
		Metrics:         inventoryMetrics,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": dbClient.Driver(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisPinger,
			promhttp.Handler(),
			cityService,
			stockService,
			itemService,
			reconciler,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
