package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/zapline/campaign-dispatch/internal/composer"
	"github.com/zapline/campaign-dispatch/internal/config"
	"github.com/zapline/campaign-dispatch/internal/db"
	"github.com/zapline/campaign-dispatch/internal/engine"
	"github.com/zapline/campaign-dispatch/internal/handler"
	"github.com/zapline/campaign-dispatch/internal/lease"
	"github.com/zapline/campaign-dispatch/internal/provider"
	"github.com/zapline/campaign-dispatch/internal/repository"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting campaign dispatch API server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Connect to database
	database, err := db.New(db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("connected to database")

	// Connect to Redis for the run lease
	locker, err := lease.NewRedisLocker(lease.RedisConfig{
		URL: cfg.Redis.URL,
		TTL: cfg.Dispatch.LeaseTTL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer locker.Close()

	// Initialize repositories
	campaignRepo := repository.NewCampaignRepository(database.DB)
	contactRepo := repository.NewContactListRepository(database.DB)
	shippingRepo := repository.NewShippingRepository(database.DB)
	channelRepo := repository.NewChannelRepository(database.DB)

	// Initialize provider client and engine
	providerClient := provider.NewHTTPClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Dispatch.SendTimeout)
	limiter := rate.NewLimiter(rate.Limit(cfg.Dispatch.MessagesPerSecond), 1)

	dispatchEngine := engine.New(
		campaignRepo,
		contactRepo,
		shippingRepo,
		channelRepo,
		providerClient,
		composer.New(),
		limiter,
		engine.Options{StaleClaimAfter: cfg.Dispatch.StaleClaimAfter},
		logger,
	)

	// Initialize handlers
	dispatchHandler := handler.NewDispatchHandler(dispatchEngine, locker, cfg.Dispatch.BatchLimit, logger)
	healthHandler := handler.NewHealthHandler(database.DB, locker, logger)

	// Setup router
	r := chi.NewRouter()

	r.Use(handler.RecoveryMiddleware(logger))
	r.Use(handler.LoggingMiddleware(logger))

	r.Get("/health", healthHandler.Health)
	r.Post("/dispatch/run", dispatchHandler.Run)

	// Create server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
		// A full batch at the paced send rate can take a while; the write
		// timeout has to cover a worst-case run.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", slog.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}
