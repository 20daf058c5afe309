package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/zapline/campaign-dispatch/internal/composer"
	"github.com/zapline/campaign-dispatch/internal/config"
	"github.com/zapline/campaign-dispatch/internal/db"
	"github.com/zapline/campaign-dispatch/internal/engine"
	"github.com/zapline/campaign-dispatch/internal/lease"
	"github.com/zapline/campaign-dispatch/internal/provider"
	"github.com/zapline/campaign-dispatch/internal/repository"
)

// The dispatcher is the self-scheduling deployment mode: instead of an
// external scheduler hitting the HTTP trigger, a cron schedule runs the
// engine in-process on a fixed cadence.
func main() {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	logger.Info("starting campaign dispatcher")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		release, err := locker.Acquire(ctx)
		if err != nil {
			logger.Warn("skipping run", slog.String("reason", err.Error()))
			return
		}
		defer release()

		summary := dispatchEngine.RunOnce(ctx, cfg.Dispatch.BatchLimit)
		if !summary.Success {
			logger.Error("dispatch run failed", slog.Any("errors", summary.Errors))
		}
	}

	// Schedule the engine on the configured cadence
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Dispatch.CronSpec, runOnce); err != nil {
		logger.Error("invalid cron spec",
			slog.String("spec", cfg.Dispatch.CronSpec),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("dispatcher scheduled", slog.String("cron", cfg.Dispatch.CronSpec))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down dispatcher", slog.String("signal", sig.String()))

	// Stop taking new runs and wait for an in-flight one to finish
	stopCtx := scheduler.Stop()
	cancel()
	<-stopCtx.Done()

	logger.Info("dispatcher stopped gracefully")
}
