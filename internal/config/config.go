package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Service  ServiceConfig
	Database DatabaseConfig
	Registry RegistryConfig
	Features FeaturesConfig
	Cache    CacheConfig
	Factory  FactoryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     slog.Level
}

// ServiceConfig describes this process as a fleet member
type ServiceConfig struct {
	Name    string
	Version string
	URL     string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// RegistryConfig holds service registry settings
type RegistryConfig struct {
	URI     string
	Timeout time.Duration
	SignIn  bool
}

// FeaturesConfig holds fleet feature aggregation settings
type FeaturesConfig struct {
	PeerTimeout  time.Duration
	CacheTTL     time.Duration
	FanoutLimit  int
	WarmInterval time.Duration
}

// CacheConfig selects the cache backend
type CacheConfig struct {
	Backend string
}

// FactoryConfig locates the factory settings file
type FactoryConfig struct {
	Path string
	Name string
}

// Cache backends
const (
	CacheBackendMemory  = "memory"
	CacheBackendSurreal = "surreal"
)

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	port := getEnv("SERVER_PORT", "8080")
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}

	logLevel, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:         port,
			Env:          getEnv("SERVER_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			LogLevel:     logLevel,
		},
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "serviceconf"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			URL:     getEnv("SERVICE_URL", fmt.Sprintf("http://%s:%s", hostname, port)),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "secondlock"),
			Database:  getEnv("DB_DATABASE", "conf"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Registry: RegistryConfig{
			URI:     getEnv("SECONDLOCK_REGISTRY_URI", ""),
			Timeout: getDurationEnv("REGISTRY_TIMEOUT", 5*time.Second),
			SignIn:  getBoolEnv("REGISTRY_SIGN_IN", true),
		},
		Features: FeaturesConfig{
			PeerTimeout:  getDurationEnv("PEER_TIMEOUT", 5*time.Second),
			CacheTTL:     getDurationEnv("FEATURE_CACHE_TTL", 600*time.Second),
			FanoutLimit:  getIntEnv("FEATURE_FANOUT_LIMIT", 0),
			WarmInterval: getDurationEnv("FEATURE_WARM_INTERVAL", 0),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", CacheBackendMemory),
		},
		Factory: FactoryConfig{
			Path: getEnv("FACTORY_CONFIG_PATH", "./config"),
			Name: getEnv("FACTORY_CONFIG_NAME", "default"),
		},
	}, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if c.Service.Name == "" {
		errs = append(errs, errors.New("SERVICE_NAME is required"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Registry.URI == "" {
		errs = append(errs, errors.New("SECONDLOCK_REGISTRY_URI is required"))
	} else if u, err := url.Parse(c.Registry.URI); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("SECONDLOCK_REGISTRY_URI must be an absolute URL, got '%s'", c.Registry.URI))
	}
	if c.Registry.Timeout <= 0 {
		errs = append(errs, errors.New("REGISTRY_TIMEOUT must be positive"))
	}

	if c.Features.PeerTimeout <= 0 {
		errs = append(errs, errors.New("PEER_TIMEOUT must be positive"))
	}
	if c.Features.CacheTTL <= 0 {
		errs = append(errs, errors.New("FEATURE_CACHE_TTL must be positive"))
	}
	if c.Features.FanoutLimit < 0 {
		errs = append(errs, errors.New("FEATURE_FANOUT_LIMIT must not be negative"))
	}
	if c.Features.WarmInterval < 0 {
		errs = append(errs, errors.New("FEATURE_WARM_INTERVAL must not be negative"))
	}

	if c.Cache.Backend != CacheBackendMemory && c.Cache.Backend != CacheBackendSurreal {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be '%s' or '%s', got '%s'", CacheBackendMemory, CacheBackendSurreal, c.Cache.Backend))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
