package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fieldtoyou/fieldtoyou-backend/api/routes"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/auth"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/cart"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/checkout"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/customers"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/farmers"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/inventory"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/payments"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/products"
	"github.com/fieldtoyou/fieldtoyou-backend/internal/shipments"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/auth/session"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/metrics"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/migrate"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/paypal"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	paypalClient, err := paypal.NewClient(context.Background(), cfg.PayPal, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal client", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, dbClient, sessionManager, paypalClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs, httpMetrics, promRegistry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, sessionManager *session.Manager, paypalClient *paypal.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	farmersRepo := farmers.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	shipmentsRepo := shipments.NewRepository(gormDB)
	ledger := inventory.NewLedger()

	farmerSvc, err := farmers.NewService(farmersRepo, cfg.Password, cfg.Store.DefaultCountry)
	if err != nil {
		return routes.Services{}, err
	}
	customerSvc, err := customers.NewService(customersRepo, cfg.Password, cfg.Store.DefaultCountry)
	if err != nil {
		return routes.Services{}, err
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		Farmers:        farmersRepo,
		Customers:      customersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}
	productSvc, err := products.NewService(productsRepo, dbClient, ledger, cfg.Store.DefaultCurrency)
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(ordersRepo, dbClient, ledger, productsRepo, cfg.Store.DefaultCurrency)
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, productsRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(cartRepo, orderSvc, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	paymentSvc, err := payments.NewService(paymentsRepo, orderSvc, paypalClient, cfg.PayPal)
	if err != nil {
		return routes.Services{}, err
	}
	shipmentSvc, err := shipments.NewService(shipmentsRepo, orderSvc)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:      authSvc,
		Farmers:   farmerSvc,
		Customers: customerSvc,
		Products:  productSvc,
		Cart:      cartSvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Shipments: shipmentSvc,
	}, nil
}
