package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// ConfigRepository defines the interface for persisted config entries
type ConfigRepository interface {
	Get(ctx context.Context, key string) (*model.StoredConfigEntry, error)
	GetAll(ctx context.Context) ([]*model.StoredConfigEntry, error)
	Create(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	Update(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// DefaultsProvider supplies factory default values
type DefaultsProvider interface {
	Lookup(key string) (interface{}, bool)
}

// ConfigService resolves and mutates configuration entries.
//
// Reads walk the precedence chain store → factory default → environment
// variable → "" and never fail. Writes go to the store only.
type ConfigService struct {
	configRepo ConfigRepository
	defaults   DefaultsProvider
	lookupEnv  func(string) (string, bool)
}

// ConfigServiceConfig holds configuration for the config service
type ConfigServiceConfig struct {
	ConfigRepo ConfigRepository
	Defaults   DefaultsProvider
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
}

// NewConfigService creates a new config service
func NewConfigService(cfg ConfigServiceConfig) *ConfigService {
	lookupEnv := cfg.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &ConfigService{
		configRepo: cfg.ConfigRepo,
		defaults:   cfg.Defaults,
		lookupEnv:  lookupEnv,
	}
}

// Get resolves key through the precedence chain. The returned entry's
// Content is "" when no layer has a value.
func (s *ConfigService) Get(ctx context.Context, key string) model.ConfigEntry {
	entry, err := s.configRepo.Get(ctx, key)
	if err != nil {
		slog.Warn("config store lookup failed, falling back",
			slog.String("key", key),
			slog.String("error", err.Error()))
	} else if entry != nil {
		return model.ConfigEntry{Key: key, Content: entry.Content}
	}

	if s.defaults != nil {
		if v, ok := s.defaults.Lookup(key); ok {
			slog.Info("config entry from factory settings", slog.String("key", key))
			return model.ConfigEntry{Key: key, Content: v}
		}
	}

	if v, ok := s.lookupEnv(key); ok {
		slog.Info("config entry from environment variable", slog.String("key", key))
		return model.ConfigEntry{Key: key, Content: v}
	}

	return model.ConfigEntry{Key: key, Content: ""}
}

// Set creates a persisted entry. It never overwrites: an existing key
// yields ErrConfigExists.
func (s *ConfigService) Set(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	existing, err := s.configRepo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("checking config entry %q: %w", key, err)
	}
	if existing != nil {
		return nil, ErrConfigExists
	}

	created, err := s.configRepo.Create(ctx, key, content)
	if err != nil {
		// Lost a race with a concurrent create
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrConfigExists
		}
		return nil, fmt.Errorf("creating config entry %q: %w", key, err)
	}
	return created, nil
}

// Update replaces the content of an existing persisted entry
func (s *ConfigService) Update(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	updated, err := s.configRepo.Update(ctx, key, content)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("updating config entry %q: %w", key, err)
	}
	return updated, nil
}

// Delete removes a persisted entry
func (s *ConfigService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	if err := s.configRepo.Delete(ctx, key); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("deleting config entry %q: %w", key, err)
	}
	return nil
}

// DeleteAll removes every persisted entry
func (s *ConfigService) DeleteAll(ctx context.Context) error {
	if err := s.configRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("deleting config entries: %w", err)
	}
	return nil
}

// GetAll returns every persisted entry. The result is never nil.
func (s *ConfigService) GetAll(ctx context.Context) ([]model.ConfigEntry, error) {
	stored, err := s.configRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing config entries: %w", err)
	}

	entries := make([]model.ConfigEntry, 0, len(stored))
	for _, e := range stored {
		if e == nil {
			continue
		}
		entries = append(entries, e.ConfigEntry)
	}
	return entries, nil
}
