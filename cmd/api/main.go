package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gearsupply/gearsupply-backend/api/routes"
	"github.com/gearsupply/gearsupply-backend/internal/auth"
	"github.com/gearsupply/gearsupply-backend/internal/cart"
	"github.com/gearsupply/gearsupply-backend/internal/catalog"
	checkoutsvc "github.com/gearsupply/gearsupply-backend/internal/checkout"
	"github.com/gearsupply/gearsupply-backend/internal/leads"
	"github.com/gearsupply/gearsupply-backend/internal/orders"
	"github.com/gearsupply/gearsupply-backend/internal/otp"
	"github.com/gearsupply/gearsupply-backend/internal/pricing"
	"github.com/gearsupply/gearsupply-backend/internal/quotes"
	"github.com/gearsupply/gearsupply-backend/internal/returns"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	"github.com/gearsupply/gearsupply-backend/pkg/auth/session"
	"github.com/gearsupply/gearsupply-backend/pkg/config"
	"github.com/gearsupply/gearsupply-backend/pkg/db"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/mailer"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
	"github.com/gearsupply/gearsupply-backend/pkg/migrate"
	"github.com/gearsupply/gearsupply-backend/pkg/redis"
	"github.com/gearsupply/gearsupply-backend/pkg/square"
	"github.com/gearsupply/gearsupply-backend/pkg/storage"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	fileStore, err := storage.NewDiskStore(cfg.Storage.Root)
	if err != nil {
		logg.Error(context.Background(), "failed to create file store", err)
		os.Exit(1)
	}

	taxRate, err := cfg.Checkout.Rate()
	if err != nil {
		logg.Error(context.Background(), "invalid checkout tax rate", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)
	discountRepo := pricing.NewDiscountRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	quoteRepo := quotes.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	returnRepo := returns.NewRepository(gdb)
	leadRepo := leads.NewRepository(gdb)
	otpRepo := otp.NewRepository(gdb)
	sequenceRepo := sequence.NewRepository(gdb)

	allocator, err := sequence.NewAllocator(sequenceRepo, dbClient, commerceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sequence allocator", err)
		os.Exit(1)
	}

	resolver, err := pricing.NewResolver(discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
		os.Exit(1)
	}

	otpService, err := otp.NewService(otpRepo, dbClient, redisClient, redisClient,
		mailer.NewLogMailer(logg), commerceMetrics, logg, cfg.OTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create otp service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, userRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, catalogRepo, userRepo, resolver, taxRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(quoteRepo, cartService, allocator, cfg.Checkout.Currency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(orderRepo, cartService, catalogRepo, allocator,
		squareClient, dbClient, commerceMetrics, cfg.Checkout.Currency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo, catalogRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(returnRepo, orderRepo, allocator, squareClient,
		fileStore, cfg.Checkout.Currency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create return service", err)
		os.Exit(1)
	}

	leadService, err := leads.NewService(leadRepo, allocator, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lead service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(userRepo, otpService, allocator, sessionManager,
		cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		Sessions:  sessionManager,
		Registry:  registry,
		Auth:      authService,
		Catalog:   catalogService,
		Cart:      cartService,
		Quotes:    quoteService,
		Checkout:  checkoutService,
		Orders:    orderService,
		Returns:   returnService,
		Leads:     leadService,
		Users:     userService,
		Sequences: allocator,
	})

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
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}
