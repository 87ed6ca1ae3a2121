package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/cache"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/config"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/repository"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/service"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/migrations"
)

// loadConfig reads and validates the process configuration and installs
// the JSON logger at the configured level.
func loadConfig(logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel,
	})))
	return cfg, nil
}

// openDatabase connects to SurrealDB and applies the embedded schema
func openDatabase(ctx context.Context, cfg *config.Config) (*database.SurrealDB, error) {
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)
	return db, nil
}

// newConfigService wires the store and the factory defaults into the resolver
func newConfigService(cfg *config.Config, db database.Database) (*service.ConfigService, *config.FactoryDefaults, error) {
	defaults, err := config.LoadFactoryDefaults(cfg.Factory)
	if err != nil {
		return nil, nil, err
	}
	if file := defaults.ConfigFile(); file != "" {
		slog.Info("loaded factory settings",
			slog.String("file", file),
			slog.Int("keys", len(defaults.Keys())),
		)
	} else {
		slog.Warn("no factory settings file found", slog.String("path", cfg.Factory.Path))
	}

	configService := service.NewConfigService(service.ConfigServiceConfig{
		ConfigRepo: repository.NewConfigRepository(db),
		Defaults:   defaults,
	})
	return configService, defaults, nil
}

// seedFactorySettings persists factory defaults that have no entry yet
func seedFactorySettings(ctx context.Context, defaults *config.FactoryDefaults, configs service.ConfigSetter) (*service.SeedResult, error) {
	seeder := service.NewFactorySeeder(service.FactorySeederConfig{
		Settings: defaults,
		Configs:  configs,
	})

	result, err := seeder.Seed(ctx)
	if err != nil {
		return result, fmt.Errorf("seed factory settings: %w", err)
	}
	slog.Info("factory settings seeded",
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// newFeatureCache builds the configured cache backend. The returned stop
// function releases backend resources.
func newFeatureCache(cfg *config.Config, db database.Database) (cache.Cache, func()) {
	if cfg.Cache.Backend == config.CacheBackendSurreal && db != nil {
		return cache.NewSurreal(db), func() {}
	}
	memory := cache.NewMemory()
	return memory, memory.Stop
}

// newFeatureCollector builds the fleet aggregator
func newFeatureCollector(cfg *config.Config, registry service.ServiceRegistry, featureCache service.FeatureCache) *service.FeatureCollector {
	return service.NewFeatureCollector(service.FeatureCollectorConfig{
		Registry:        registry,
		Cache:           featureCache,
		PeerTimeout:     cfg.Features.PeerTimeout,
		RegistryTimeout: cfg.Registry.Timeout,
		CacheTTL:        cfg.Features.CacheTTL,
		FanoutLimit:     cfg.Features.FanoutLimit,
	})
}
