package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Nareshthota-64/Sales-CRM/pkg/api"
	"github.com/Nareshthota-64/Sales-CRM/pkg/cache"
	"github.com/Nareshthota-64/Sales-CRM/pkg/config"
	"github.com/Nareshthota-64/Sales-CRM/pkg/directory"
	"github.com/Nareshthota-64/Sales-CRM/pkg/identity"
	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
	"github.com/Nareshthota-64/Sales-CRM/pkg/provider"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	cacheClient, err := cache.New(cache.Config{
		URL:        cfg.Cache.URL,
		Password:   cfg.Cache.Password,
		DB:         cfg.Cache.DB,
		MaxRetries: cfg.Cache.MaxRetries,
		PoolSize:   cfg.Cache.PoolSize,
		OpTimeout:  cfg.Cache.OpTimeout,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to redis")
		os.Exit(1)
	}
	defer cacheClient.Close()

	providerClient := provider.NewClient(cfg.Identity.ProviderURL, cfg.Identity.ProviderTimeout)
	directoryClient := directory.NewClient(cfg.Identity.DirectoryURL, cfg.Identity.DirectoryTimeout)

	verifier := identity.NewVerifier(
		providerClient, directoryClient, cacheClient,
		cfg.Identity.CacheTTL, logger, metrics,
	)
	defer verifier.Close()

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Verifier:  verifier,
		Provider:  providerClient,
		Directory: directoryClient,
		Cache:     cacheClient,
		Logger:    logger,
		Metrics:   metrics,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on their own port so probes and scrapes never
	// compete with (or get rate limited like) API traffic
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(cacheClient.Underlying()))
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown error")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server error")
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
