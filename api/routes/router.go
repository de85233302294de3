package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cliffindus/marketplace-backend/api/controllers"
	"github.com/cliffindus/marketplace-backend/api/middleware"
	"github.com/cliffindus/marketplace-backend/internal/auth"
	"github.com/cliffindus/marketplace-backend/internal/cart"
	checkoutsvc "github.com/cliffindus/marketplace-backend/internal/checkout"
	"github.com/cliffindus/marketplace-backend/internal/ledger"
	"github.com/cliffindus/marketplace-backend/internal/orders"
	"github.com/cliffindus/marketplace-backend/internal/products"
	"github.com/cliffindus/marketplace-backend/internal/users"
	"github.com/cliffindus/marketplace-backend/pkg/auth/session"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/db"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
	"github.com/cliffindus/marketplace-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	userService users.Service,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	ledgerService ledger.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
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

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(userService, authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		// Reads are public: visibility scoping narrows results per actor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessionChecker, logg))
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/{productId}", controllers.ProductGet(productService, logg))
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(productService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(productService, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Get("/v1/carts", controllers.CartList(cartService, logg))
		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/v1/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/process", controllers.OrderTransition(ordersService, enums.OrderStatusProcessing, logg))
			r.Post("/{orderId}/ship", controllers.OrderTransition(ordersService, enums.OrderStatusShipped, logg))
			r.Post("/{orderId}/deliver", controllers.OrderTransition(ordersService, enums.OrderStatusDelivered, logg))
			r.Post("/{orderId}/cancel", controllers.OrderTransition(ordersService, enums.OrderStatusCancelled, logg))
		})
		r.Get("/v1/shipping", controllers.ShippingList(ordersService, logg))

		r.Route("/v1/credits", func(r chi.Router) {
			r.Get("/balance", controllers.CreditBalance(ledgerService, logg))
			r.Get("/history", controllers.CreditHistory(ledgerService, logg))
		})

		r.Post("/v1/upgrades", controllers.UpgradeRequest(userService, logg))
		r.Get("/v1/users/{userId}", controllers.UserGet(userService, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/v1/users/{userId}", func(r chi.Router) {
			r.Get("/", controllers.UserGet(userService, logg))
			r.Post("/verify", controllers.AdminUserVerify(userService, true, logg))
			r.Post("/unverify", controllers.AdminUserVerify(userService, false, logg))
		})
		r.Route("/v1/upgrades", func(r chi.Router) {
			r.Get("/", controllers.AdminUpgradeList(userService, logg))
			r.Post("/{requestId}/decision", controllers.AdminUpgradeDecide(userService, logg))
		})
		r.Get("/v1/orders/stats", controllers.AdminOrderStats(ordersService, logg))
	})

	return r
}
