package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cliffindus/marketplace-backend/api/routes"
	"github.com/cliffindus/marketplace-backend/internal/auth"
	"github.com/cliffindus/marketplace-backend/internal/cart"
	checkoutsvc "github.com/cliffindus/marketplace-backend/internal/checkout"
	"github.com/cliffindus/marketplace-backend/internal/ledger"
	"github.com/cliffindus/marketplace-backend/internal/notifications"
	"github.com/cliffindus/marketplace-backend/internal/orders"
	"github.com/cliffindus/marketplace-backend/internal/products"
	"github.com/cliffindus/marketplace-backend/internal/users"
	"github.com/cliffindus/marketplace-backend/pkg/auth/session"
	"github.com/cliffindus/marketplace-backend/pkg/config"
	"github.com/cliffindus/marketplace-backend/pkg/db"
	"github.com/cliffindus/marketplace-backend/pkg/logger"
	"github.com/cliffindus/marketplace-backend/pkg/metrics"
	"github.com/cliffindus/marketplace-backend/pkg/migrate"
	"github.com/cliffindus/marketplace-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	checkoutRepo := checkoutsvc.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)

	notifier := notifications.NewLogNotifier(logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		Tx:             dbClient,
		Repo:           userRepo,
		Notifier:       notifier,
		Log:            logg,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, checkoutRepo, marketplaceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(dbClient, orderRepo, ledgerRepo, marketplaceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			userService,
			productService,
			cartService,
			checkoutService,
			orderService,
			ledgerService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
