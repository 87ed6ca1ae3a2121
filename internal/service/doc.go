// Package service implements the business logic of the config broker.
//
// # Services
//
//   - ConfigService: precedence-resolving reads (store → factory default →
//     environment → "") and create-only writes of configuration entries
//   - FeatureCollector: registry-driven fan-out over every service's
//     GET /internal, merged and cached under FeatureCacheKey
//   - FactorySeeder: persists factory defaults on startup
//
// # Collaborator Interfaces
//
// Services define the interfaces they consume (ConfigRepository,
// ServiceRegistry, FeatureCache, DefaultsProvider), so tests substitute
// hand-written fakes:
//
//	svc := NewConfigService(ConfigServiceConfig{
//	    ConfigRepo: configRepository,
//	    Defaults:   factoryDefaults,
//	})
//	entry := svc.Get(ctx, "redis") // never fails
//
// # Error Handling
//
// Errors are package-level sentinels in errors.go, checked with errors.Is.
// Peer failures during CollectAll are logged and dropped; only a registry
// failure surfaces, as ErrAggregation.
package service
