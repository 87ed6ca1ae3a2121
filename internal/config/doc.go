// Package config manages configuration for the config broker.
//
// Process configuration is read from environment variables by Load and
// checked by Validate, which reports every problem at once:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Environment Variables
//
//	SERVER_PORT              - HTTP listen port (default: 8080)
//	SERVER_ENV               - development, production or test
//	SERVER_READ_TIMEOUT      - (default: 15s)
//	SERVER_WRITE_TIMEOUT     - (default: 30s)
//	LOG_LEVEL                - debug, info, warn or error
//	SERVICE_NAME             - name announced to the registry (default: serviceconf)
//	SERVICE_URL              - base URL announced to the registry
//	SERVICE_VERSION          - version reported by /internal (default: dev)
//	DB_HOST, DB_PORT         - SurrealDB location
//	DB_NAMESPACE, DB_DATABASE
//	DB_USER, DB_PASSWORD
//	SECONDLOCK_REGISTRY_URI  - service registry base URL (required)
//	REGISTRY_TIMEOUT         - registry request timeout (default: 5s)
//	REGISTRY_SIGN_IN         - register with the registry on start (default: true)
//	PEER_TIMEOUT             - per-peer /internal request timeout (default: 5s)
//	FEATURE_CACHE_TTL        - aggregated feature cache TTL (default: 600s)
//	FEATURE_FANOUT_LIMIT     - max concurrent peer requests, 0 = unbounded
//	FEATURE_WARM_INTERVAL    - cache warmer interval, 0 = disabled
//	CACHE_BACKEND            - memory or surreal
//	FACTORY_CONFIG_PATH      - directory of the factory settings file
//	FACTORY_CONFIG_NAME      - base name of the factory settings file
//
// # Factory Defaults
//
// FactoryDefaults wraps the shipped settings file (read with viper) and is
// the second lookup layer for configuration entries after the store.
package config
