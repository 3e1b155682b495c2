package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platform-smith-labs/tourbook/api"
	"github.com/platform-smith-labs/tourbook/config"
	"github.com/platform-smith-labs/tourbook/db"
	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/mailer"
	"github.com/platform-smith-labs/tourbook/metrics"
	"github.com/platform-smith-labs/tourbook/router"
	"github.com/platform-smith-labs/tourbook/schemas"
	"github.com/platform-smith-labs/tourbook/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("config.env")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.Migrate(ctx, database, logger); err != nil {
		return err
	}

	collector := metrics.New(metrics.DefaultOptions(), nil)

	var transport mailer.Transport = mailer.LogTransport{Logger: logger}
	if cfg.RedisURL != "" {
		redisTransport, err := mailer.Dial(cfg.RedisURL, cfg.EmailPubChannel, logger)
		if err != nil {
			return err
		}
		defer redisTransport.Close()
		if err := redisTransport.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable, emails will fail until it recovers", "error", err)
		}
		transport = redisTransport
	}
	mail := mailer.New(transport, cfg.EmailFrom, cfg.FrontendURL, collector, logger)

	users := services.NewUserService(database, mail, services.UserOptions{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.JWTExpiresIn,
		ResetTTL:   cfg.ResetTokenTTL,
		OTPTTL:     cfg.OTPTTL,
	}, logger)

	contracts := schemas.NewRegistry()
	if err := api.RegisterValidators(database); err != nil {
		return err
	}
	reg := handler.NewRegistry()
	api.Register(reg, api.Deps{
		Config:   cfg,
		Schemas:  contracts,
		Users:    users,
		Tours:    services.NewTourService(database, logger),
		Bookings: services.NewBookingService(database, logger),
		Observer: collector,
		Logger:   logger,
	})
	api.CheckAllowLists(contracts, logger)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.New(reg, contracts, database, router.Options{
			AllowedOrigins:  cfg.CORSAllowedOrigins,
			RateLimitMax:    cfg.RateLimitMax,
			RateLimitWindow: cfg.RateLimitWindow,
			RequestTimeout:  30 * time.Second,
			HSTS:            cfg.IsProduction(),
			Metrics:         collector,
			Logger:          logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}
