package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"horas/internal/auth"
	"horas/internal/backend"
	"horas/internal/config"
	apphttp "horas/internal/http"
	"horas/internal/log"
	"horas/internal/services"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err)
		os.Exit(1)
	}
	defer res.Close()

	led, err := backend.LoadLedger(ctx, res.Store)
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger loaded", "records", led.Len(), log.FieldOperation, log.OpStartup)

	// A nil interface disables publishing; a typed nil would not.
	var pub services.SyncPublisher
	if res.AMQP != nil {
		pub = res.AMQP
	}

	agg := services.NewAggregator(led)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:            logger,
		Auth:              auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Users:             res.Store,
		TaskTypes:         services.NewTaskTypeService(res.Store, led, logger),
		Tasks:             services.NewTaskService(res.Store, led, logger),
		Imputations:       services.NewImputationService(res.Store, led, pub, logger),
		Locks:             services.NewLockService(res.Store, logger),
		Aggregator:        agg,
		Reporter:          services.NewSummaryReporter(agg),
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting horas server",
		"port", cfg.Port, "backend", cfg.DataBackend, "amqp_enabled", res.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
