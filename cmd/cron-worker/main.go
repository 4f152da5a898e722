package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/internal/cron"
	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/metrics"
	"github.com/seemyown/StockController/pkg/migrate"
	"github.com/seemyown/StockController/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cron cycle and exit")
	jobName := flag.String("job", "", "run one named job and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	reconcilerParams := capacity.ReconcilerParams{
		DB:                 dbClient,
		Repo:               capacity.NewRepository(dbClient.DB()),
		Logger:             logg,
		Metrics:            metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
		RecomputeFreeSpace: cfg.Inventory.RecomputeFreeSpace,
	}

	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
		reconcilerParams.Marker = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured; using an in-process cron lock")
	}

	reconciler, err := capacity.NewReconciler(reconcilerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create capacity reconciler", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewCapacityReconcileJob(cron.CapacityReconcileJobParams{
		Logger:     logg,
		Reconciler: reconciler,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(reconcileJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    service.Interval().String(),
	})

	if *jobName != "" {
		logg.Info(ctx, "running a single cron job")
		if err := service.RunJob(ctx, *jobName); err != nil {
			logg.Error(ctx, "cron job failed", err)
			os.Exit(1)
		}
		return
	}

	if *once {
		logg.Info(ctx, "running a single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
