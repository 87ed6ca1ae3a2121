package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/registry"
)

// FeatureCacheKey is the cache key of the merged fleet feature list
const FeatureCacheKey = "cache.services.config"

// Aggregation defaults
const (
	DefaultFeatureCacheTTL = 600 * time.Second
	DefaultPeerTimeout     = 5 * time.Second
	maxPeerBody            = 10 << 20
)

// ServiceRegistry defines the interface for service discovery
type ServiceRegistry interface {
	ListServices(ctx context.Context) ([]model.ServiceDescriptor, error)
	GetService(ctx context.Context, name string) (*model.ServiceDescriptor, error)
}

// FeatureCache defines the interface for the merged feature cache
type FeatureCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FeatureCollector merges the feature lists published by every registered
// service into one cached view.
type FeatureCollector struct {
	registry        ServiceRegistry
	cache           FeatureCache
	httpClient      *http.Client
	peerTimeout     time.Duration
	registryTimeout time.Duration
	cacheTTL        time.Duration
	fanoutLimit     int
}

// FeatureCollectorConfig holds configuration for the feature collector
type FeatureCollectorConfig struct {
	Registry   ServiceRegistry
	Cache      FeatureCache
	HTTPClient *http.Client
	// PeerTimeout bounds each GET {url}/internal
	PeerTimeout time.Duration
	// RegistryTimeout bounds registry lookups; zero means the caller's context only
	RegistryTimeout time.Duration
	CacheTTL        time.Duration
	// FanoutLimit caps concurrent peer requests; zero means one per peer
	FanoutLimit int
}

// NewFeatureCollector creates a new feature collector
func NewFeatureCollector(cfg FeatureCollectorConfig) *FeatureCollector {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = DefaultPeerTimeout
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultFeatureCacheTTL
	}
	return &FeatureCollector{
		registry:        cfg.Registry,
		cache:           cfg.Cache,
		httpClient:      httpClient,
		peerTimeout:     peerTimeout,
		registryTimeout: cfg.RegistryTimeout,
		cacheTTL:        cacheTTL,
		fanoutLimit:     cfg.FanoutLimit,
	}
}

// peerResult is the outcome of fetching one peer's features
type peerResult struct {
	service  model.ServiceDescriptor
	features []model.FeatureObject
	err      error
}

// CollectAll returns the merged fleet feature list, served from cache while
// the cached copy is live. Only a registry failure is an error; peers that
// fail are left out of the result.
func (s *FeatureCollector) CollectAll(ctx context.Context) ([]model.FeatureObject, error) {
	if features, ok := s.readCache(ctx); ok {
		return features, nil
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the merged list from the fleet regardless of the cache
// state and stores it.
func (s *FeatureCollector) Refresh(ctx context.Context) ([]model.FeatureObject, error) {
	features, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding features: %v", ErrAggregation, err)
	}

	if err := s.cache.Set(ctx, FeatureCacheKey, data, s.cacheTTL); err != nil {
		slog.Warn("feature cache write failed", slog.String("error", err.Error()))
		return features, nil
	}

	// Return what was cached so every reader sees the same normalized value
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}
	return features, nil
}

// CollectFull returns the raw /internal body of one named service
func (s *FeatureCollector) CollectFull(ctx context.Context, name string) (json.RawMessage, error) {
	regCtx, cancel := s.registryContext(ctx)
	svc, err := s.registry.GetService(regCtx, name)
	cancel()
	if err != nil {
		if errors.Is(err, registry.ErrServiceNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	body, err := s.fetchInternal(ctx, svc.URL)
	if err != nil {
		slog.Error("problem in load config from service",
			slog.String("service", name),
			slog.String("url", svc.URL),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, name, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s: response is not valid JSON", ErrUpstream, name)
	}
	return json.RawMessage(body), nil
}

func (s *FeatureCollector) aggregate(ctx context.Context) ([]model.FeatureObject, error) {
	regCtx, cancel := s.registryContext(ctx)
	services, err := s.registry.ListServices(regCtx)
	cancel()
	if err != nil {
		slog.Error("can't load services config", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
	}

	results := make([]peerResult, len(services))

	var g errgroup.Group
	if s.fanoutLimit > 0 {
		g.SetLimit(s.fanoutLimit)
	}
	for i, svc := range services {
		g.Go(func() error {
			results[i] = s.fetchPeer(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	return mergePeerResults(results), nil
}

// mergePeerResults concatenates successful peer feature lists in registry
// order and logs the failures it drops.
func mergePeerResults(results []peerResult) []model.FeatureObject {
	features := make([]model.FeatureObject, 0)
	for _, r := range results {
		if r.err != nil {
			slog.Warn("skipping service features",
				slog.String("service", r.service.Name),
				slog.String("url", r.service.URL),
				slog.String("error", r.err.Error()))
			continue
		}
		features = append(features, r.features...)
	}
	return features
}

func (s *FeatureCollector) fetchPeer(ctx context.Context, svc model.ServiceDescriptor) peerResult {
	body, err := s.fetchInternal(ctx, svc.URL)
	if err != nil {
		return peerResult{service: svc, err: err}
	}
	features, err := extractFeatures(body)
	if err != nil {
		return peerResult{service: svc, err: err}
	}
	return peerResult{service: svc, features: features}
}

func (s *FeatureCollector) fetchInternal(ctx context.Context, baseURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/internal", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPeerBody))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// extractFeatures pulls config.features out of an /internal body. Invalid
// JSON is an error; valid JSON of any other shape has no features.
func extractFeatures(body []byte) ([]model.FeatureObject, error) {
	if !json.Valid(body) {
		return nil, errors.New("response is not valid JSON")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil
	}
	var cfg map[string]json.RawMessage
	if err := json.Unmarshal(doc["config"], &cfg); err != nil {
		return nil, nil
	}
	var features []model.FeatureObject
	if err := json.Unmarshal(cfg["features"], &features); err != nil {
		return nil, nil
	}
	return features, nil
}

func (s *FeatureCollector) readCache(ctx context.Context) ([]model.FeatureObject, bool) {
	data, found, err := s.cache.Get(ctx, FeatureCacheKey)
	if err != nil {
		slog.Warn("feature cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var features []model.FeatureObject
	if err := json.Unmarshal(data, &features); err != nil {
		slog.Warn("discarding malformed feature cache entry", slog.String("error", err.Error()))
		return nil, false
	}
	if features == nil {
		features = []model.FeatureObject{}
	}
	return features, true
}

func (s *FeatureCollector) registryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.registryTimeout > 0 {
		return context.WithTimeout(ctx, s.registryTimeout)
	}
	return ctx, func() {}
}
