package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/handler"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/jobs"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/middleware"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/registry"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/repository"
)

const (
	shutdownTimeout   = 30 * time.Second
	warmInitialDelay  = 5 * time.Second
	unregisterTimeout = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	configService, defaults, err := newConfigService(cfg, db)
	if err != nil {
		return err
	}
	if _, err := seedFactorySettings(ctx, defaults, configService); err != nil {
		return err
	}

	featureCache, stopCache := newFeatureCache(cfg, db)
	defer stopCache()

	registryClient := registry.New(cfg.Registry.URI, cfg.Registry.Timeout)
	collector := newFeatureCollector(cfg, registryClient, featureCache)

	mux := http.NewServeMux()
	handler.NewConfigHandler(configService).RegisterRoutes(mux)
	handler.NewFeatureHandler(collector).RegisterRoutes(mux)
	handler.NewSystemHandler(handler.SystemHandlerConfig{
		Name:    cfg.Service.Name,
		Version: cfg.Service.Version,
		URL:     cfg.Service.URL,
		Store:   repository.NewConfigRepository(db),
	}).RegisterRoutes(mux)

	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.Compress,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("cache", cfg.Cache.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var warmer *jobs.FeatureCacheWarmer
	if cfg.Features.WarmInterval > 0 {
		warmer = jobs.NewFeatureCacheWarmer(jobs.FeatureCacheWarmerConfig{
			Refresher:    collector,
			Interval:     cfg.Features.WarmInterval,
			InitialDelay: warmInitialDelay,
			Timeout:      cfg.Features.PeerTimeout + cfg.Registry.Timeout,
		})
		warmer.Start()
	}

	self := model.ServiceDescriptor{Name: cfg.Service.Name, URL: cfg.Service.URL}
	if cfg.Registry.SignIn {
		if err := registryClient.Register(ctx, self); err != nil {
			shutdown(server, warmer)
			return fmt.Errorf("sign in to service registry: %w", err)
		}
		slog.Info("signed in to service registry",
			slog.String("registry", cfg.Registry.URI),
			slog.String("url", cfg.Service.URL),
		)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		slog.Info("shutting down server...")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server: %w", err)
		}
	}

	if cfg.Registry.SignIn {
		unregisterCtx, cancel := context.WithTimeout(context.Background(), unregisterTimeout)
		if err := registryClient.Unregister(unregisterCtx, self.Name); err != nil {
			slog.Warn("failed to sign out of service registry", slog.String("error", err.Error()))
		}
		cancel()
	}

	shutdown(server, warmer)
	slog.Info("server exited")
	return runErr
}

func shutdown(server *http.Server, warmer *jobs.FeatureCacheWarmer) {
	if warmer != nil {
		warmer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
}
