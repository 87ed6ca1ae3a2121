package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// authSettingKey names the factory setting that receives a per-installation
// token secret when seeded.
const authSettingKey = "auth"

// secretBytes is the amount of entropy in a generated token secret
const secretBytes = 32

// FactorySettings lists and reads the shipped factory defaults
type FactorySettings interface {
	Keys() []string
	Lookup(key string) (interface{}, bool)
}

// ConfigSetter creates persisted config entries
type ConfigSetter interface {
	Set(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
}

// FactorySeeder persists factory defaults so they become durable,
// editable entries. Keys that already exist are left untouched.
type FactorySeeder struct {
	settings FactorySettings
	configs  ConfigSetter
	secret   func() (string, error)
}

// FactorySeederConfig holds configuration for the factory seeder
type FactorySeederConfig struct {
	Settings FactorySettings
	Configs  ConfigSetter
	// Secret generates the auth token secret; defaults to 32 random bytes, hex encoded
	Secret func() (string, error)
}

// NewFactorySeeder creates a new factory seeder
func NewFactorySeeder(cfg FactorySeederConfig) *FactorySeeder {
	secret := cfg.Secret
	if secret == nil {
		secret = randomSecret
	}
	return &FactorySeeder{
		settings: cfg.Settings,
		configs:  cfg.Configs,
		secret:   secret,
	}
}

// SeedResult reports what a seeding run did
type SeedResult struct {
	Created []string `json:"created" yaml:"created"`
	Skipped []string `json:"skipped" yaml:"skipped"`
}

// Seed persists every factory setting that has no entry yet. Failures
// other than "already exists" are collected and returned together after
// every key has been attempted.
func (s *FactorySeeder) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{Created: []string{}, Skipped: []string{}}
	var errs *multierror.Error

	for _, key := range s.settings.Keys() {
		value, ok := s.settings.Lookup(key)
		if !ok {
			continue
		}

		if key == authSettingKey {
			withSecret, err := s.withSecret(value)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("seeding %q: %w", key, err))
				continue
			}
			value = withSecret
		}

		slog.Info("check if entry for setting exists", slog.String("key", key))
		if _, err := s.configs.Set(ctx, key, value); err != nil {
			if errors.Is(err, ErrConfigExists) {
				slog.Info("entry already exists, skipping", slog.String("key", key))
				result.Skipped = append(result.Skipped, key)
				continue
			}
			errs = multierror.Append(errs, fmt.Errorf("seeding %q: %w", key, err))
			continue
		}
		result.Created = append(result.Created, key)
	}

	return result, errs.ErrorOrNil()
}

// withSecret copies an object setting and sets a fresh "secret" field
func (s *FactorySeeder) withSecret(value interface{}) (interface{}, error) {
	secret, err := s.secret()
	if err != nil {
		return nil, fmt.Errorf("generating secret: %w", err)
	}

	out := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for k, val := range v {
			out[k] = val
		}
	case nil:
	default:
		return nil, fmt.Errorf("setting is %T, expected an object", value)
	}
	out["secret"] = secret
	return out, nil
}

func randomSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
