package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"freelance/internal/auth"
	"freelance/internal/backend"
	"freelance/internal/cache"
	"freelance/internal/cli"
	"freelance/internal/core"
	apphttp "freelance/internal/http"
	"freelance/internal/mail"
	"freelance/internal/metrics"
	"freelance/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.Mailer, err = mail.FromConfig(cfg, logger.Logger)
	if err != nil {
		logger.Error("Invalid mail configuration", "error", err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	months := cache.NewLRUCache[[]core.WorkDay](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager()
	caches.Register(months)

	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)

	srv, err := apphttp.NewServer(cfg, apphttp.Deps{
		WorkDays: services.NewWorkDayService(be.Store, be.Store, months, be.Events, m),
		Clients:  services.NewClientService(be.Store, months, m),
		Revenue:  services.NewRevenueService(be.Store),
		Auth:     services.NewAuthService(be.Store, tokens, be.Mailer),
		Store:    be.Store,
		Metrics:  m,
		Caches:   caches,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting freelance server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = be.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
