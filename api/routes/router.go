package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldtoyou/fieldtoyou-backend/api/controllers"
	"github.com/fieldtoyou/fieldtoyou-backend/api/middleware"
	authsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/auth"
	cartsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/cart"
	checkoutsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/checkout"
	customersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/customers"
	farmersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/farmers"
	ordersvc "github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	paymentsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/payments"
	productsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/products"
	shipmentsvc "github.com/fieldtoyou/fieldtoyou-backend/internal/shipments"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/auth/session"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/config"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/metrics"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/redis"
)

// Services bundles the domain services the HTTP surface exposes.
type Services struct {
	Auth      authsvc.Service
	Farmers   farmersvc.Service
	Customers customersvc.Service
	Products  productsvc.Service
	Cart      cartsvc.Service
	Checkout  checkoutsvc.Service
	Orders    ordersvc.Service
	Payments  paymentsvc.Service
	Shipments shipmentsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	// Public storefront: browsing, signup, guest carts, and tracking.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/api/v1/farmers", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/", controllers.FarmerRegister(svcs.Farmers, logg))
			r.Get("/", controllers.FarmerList(svcs.Farmers, logg))
			r.Get("/{farmerId}", controllers.FarmerDetail(svcs.Farmers, logg))
		})
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/api/v1/customers", controllers.CustomerRegister(svcs.Customers, logg))

		r.Route("/api/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
		})

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Get("/totals", controllers.CartTotals(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Get("/api/v1/shipments/track/{trackingNumber}", controllers.ShipmentTrack(svcs.Shipments, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		// Buyer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUserType(enums.UserTypeCustomer, logg))

			r.Route("/v1/customers/me", func(r chi.Router) {
				r.Get("/", controllers.CustomerProfile(svcs.Customers, logg))
				r.Patch("/", controllers.CustomerUpdateProfile(svcs.Customers, logg))
				r.Delete("/", controllers.CustomerDeactivate(svcs.Customers, logg))
			})

			r.Post("/v1/checkout", controllers.Checkout(svcs.Checkout, logg))
			r.Post("/v1/orders", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/v1/orders", controllers.CustomerOrderList(svcs.Orders, logg))
			r.Post("/v1/payments/paypal/complete", controllers.PaymentComplete(svcs.Payments, logg))
		})

		// Shared order views: the buyer and the seller both see the order.
		r.Get("/v1/orders/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
		r.Patch("/v1/orders/{orderId}", controllers.OrderUpdate(svcs.Orders, logg))
		r.Post("/v1/orders/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		r.Delete("/v1/orders/{orderId}", controllers.OrderDelete(svcs.Orders, logg))
		r.Post("/v1/orders/{orderId}/payment", controllers.PaymentInitiate(svcs.Payments, svcs.Orders, logg))
		r.Get("/v1/orders/{orderId}/payment", controllers.PaymentDetails(svcs.Payments, svcs.Orders, logg))
		r.Get("/v1/orders/{orderId}/shipment", controllers.ShipmentByOrder(svcs.Shipments, svcs.Orders, logg))

		// Seller surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUserType(enums.UserTypeFarmer, logg))

			r.Route("/v1/farmers/me", func(r chi.Router) {
				r.Get("/", controllers.FarmerProfile(svcs.Farmers, logg))
				r.Patch("/", controllers.FarmerUpdateProfile(svcs.Farmers, logg))
				r.Delete("/", controllers.FarmerDeactivate(svcs.Farmers, logg))
			})

			r.Route("/v1/products", func(r chi.Router) {
				r.Post("/", controllers.FarmerCreateProduct(svcs.Products, logg))
				r.Get("/low-stock", controllers.FarmerLowStock(svcs.Products, cfg.Store.LowStockDefault, logg))
				r.Patch("/{productId}", controllers.FarmerUpdateProduct(svcs.Products, logg))
				r.Delete("/{productId}", controllers.FarmerDeleteProduct(svcs.Products, logg))
				r.Post("/{productId}/stock", controllers.FarmerAdjustStock(svcs.Products, logg))
			})

			r.Get("/v1/farmer/orders", controllers.FarmerOrderList(svcs.Orders, logg))
			r.Post("/v1/orders/{orderId}/status", controllers.FarmerOrderUpdateStatus(svcs.Orders, logg))
			r.Post("/v1/orders/{orderId}/refund", controllers.PaymentRefund(svcs.Payments, svcs.Orders, logg))
			r.Post("/v1/orders/{orderId}/shipment", controllers.FarmerShipmentCreate(svcs.Shipments, svcs.Orders, logg))
			r.Post("/v1/orders/{orderId}/ship", controllers.FarmerShipOrder(svcs.Shipments, svcs.Orders, logg))
			r.Patch("/v1/shipments/{shipmentId}", controllers.FarmerShipmentUpdate(svcs.Shipments, svcs.Orders, logg))
			r.Post("/v1/shipments/{shipmentId}/status", controllers.FarmerShipmentUpdateStatus(svcs.Shipments, svcs.Orders, logg))
			r.Post("/v1/shipments/{shipmentId}/cancel", controllers.FarmerShipmentCancel(svcs.Shipments, svcs.Orders, logg))
			r.Delete("/v1/shipments/{shipmentId}", controllers.FarmerShipmentDelete(svcs.Shipments, svcs.Orders, logg))
		})
	})

	return r
}
