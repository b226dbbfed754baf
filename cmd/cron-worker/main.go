package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/cart"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/cron"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/products"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/metrics"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/migrate"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/redis"
)

const lockKeyFormat = "fty:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

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

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)

	orderSvc, err := orders.NewService(ordersRepo, dbClient, inventory.NewLedger(), productsRepo, cfg.Store.DefaultCurrency)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	cartJob, err := cron.NewCartAbandonJob(cron.CartAbandonJobParams{
		Logger: logg,
		Carts:  cartRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart abandon job", err)
		os.Exit(1)
	}
	paymentTTLJob, err := cron.NewPendingPaymentTTLJob(cron.PendingPaymentTTLJobParams{
		Logger: logg,
		Orders: orderSvc,
		Cancel: orderSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending payment ttl job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(cartJob, paymentTTLJob)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
