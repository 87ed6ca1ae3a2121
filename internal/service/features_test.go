package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/registry"
)

// ============================================================================
// Fakes
// ============================================================================

type mockRegistry struct {
	listFunc func(ctx context.Context) ([]model.ServiceDescriptor, error)
	getFunc  func(ctx context.Context, name string) (*model.ServiceDescriptor, error)
	listed   atomic.Int32
}

func (m *mockRegistry) ListServices(ctx context.Context) ([]model.ServiceDescriptor, error) {
	m.listed.Add(1)
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []model.ServiceDescriptor{}, nil
}

func (m *mockRegistry) GetService(ctx context.Context, name string) (*model.ServiceDescriptor, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, name)
	}
	return nil, registry.ErrServiceNotFound
}

func staticRegistry(services ...model.ServiceDescriptor) *mockRegistry {
	return &mockRegistry{
		listFunc: func(ctx context.Context) ([]model.ServiceDescriptor, error) {
			return services, nil
		},
		getFunc: func(ctx context.Context, name string) (*model.ServiceDescriptor, error) {
			for _, s := range services {
				if s.Name == name {
					return &s, nil
				}
			}
			return nil, fmt.Errorf("get service %q: %w", name, registry.ErrServiceNotFound)
		},
	}
}

type cacheItem struct {
	value []byte
	ttl   time.Duration
}

type memCache struct {
	mu     sync.Mutex
	items  map[string]cacheItem
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{items: map[string]cacheItem{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	item, ok := c.items[key]
	return item.value, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = cacheItem{value: value, ttl: ttl}
	return nil
}

func (c *memCache) item(key string) (cacheItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	return item, ok
}

// peer starts a fake fleet member answering GET /internal with body.
func peer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func slowPeer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func featureJSON(features []model.FeatureObject) string {
	data, _ := json.Marshal(features)
	return string(data)
}

// ============================================================================
// CollectAll Tests
// ============================================================================

func TestFeatureCollector_CollectAll_MergesInRegistryOrder(t *testing.T) {
	t.Parallel()

	a := peer(t, `{"name":"a","config":{"features":[{"id":1}]}}`, nil)
	b := peer(t, `{"name":"b","config":{"features":[{"id":2}]}}`, nil)
	cache := newMemCache()

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(
			model.ServiceDescriptor{Name: "A", URL: a.URL},
			model.ServiceDescriptor{Name: "B", URL: b.URL},
		),
		Cache: cache,
	})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, featureJSON(features))

	item, ok := cache.item("cache.services.config")
	require.True(t, ok, "merged list should be cached under cache.services.config")
	assert.Equal(t, 600*time.Second, item.ttl)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(item.value))
}

func TestFeatureCollector_CollectAll_CacheHitSkipsFanout(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	a := peer(t, `{"config":{"features":[{"id":1}]}}`, &hits)
	reg := staticRegistry(model.ServiceDescriptor{Name: "A", URL: a.URL})

	c := NewFeatureCollector(FeatureCollectorConfig{Registry: reg, Cache: newMemCache()})
	ctx := context.Background()

	first, err := c.CollectAll(ctx)
	require.NoError(t, err)
	second, err := c.CollectAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, featureJSON(first), featureJSON(second))
	assert.Equal(t, int32(1), hits.Load(), "peer should be contacted once")
	assert.Equal(t, int32(1), reg.listed.Load(), "registry should be listed once")
}

func TestFeatureCollector_CollectAll_SlowPeerIsSkipped(t *testing.T) {
	t.Parallel()

	a := peer(t, `{"config":{"features":[{"id":1}]}}`, nil)
	slow := slowPeer(t)
	c3 := peer(t, `{"config":{"features":[{"id":3}]}}`, nil)

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(
			model.ServiceDescriptor{Name: "A", URL: a.URL},
			model.ServiceDescriptor{Name: "B", URL: slow.URL},
			model.ServiceDescriptor{Name: "C", URL: c3.URL},
		),
		Cache:       newMemCache(),
		PeerTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":3}]`, featureJSON(features))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestFeatureCollector_CollectAll_RegistryDown(t *testing.T) {
	t.Parallel()

	reg := &mockRegistry{
		listFunc: func(ctx context.Context) ([]model.ServiceDescriptor, error) {
			return nil, registry.ErrRegistryUnavailable
		},
	}
	cache := newMemCache()
	c := NewFeatureCollector(FeatureCollectorConfig{Registry: reg, Cache: cache})

	_, err := c.CollectAll(context.Background())
	assert.ErrorIs(t, err, ErrAggregation)

	_, cached := cache.item(FeatureCacheKey)
	assert.False(t, cached, "nothing should be cached on registry failure")
}

func TestFeatureCollector_CollectAll_MalformedPeersDegrade(t *testing.T) {
	t.Parallel()

	good := peer(t, `{"config":{"features":[{"id":1},{"id":2}]}}`, nil)
	garbage := peer(t, `{"config":`, nil)
	notList := peer(t, `{"config":{"features":{"id":9}}}`, nil)
	noConfig := peer(t, `["unexpected"]`, nil)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(
			model.ServiceDescriptor{Name: "garbage", URL: garbage.URL},
			model.ServiceDescriptor{Name: "good", URL: good.URL},
			model.ServiceDescriptor{Name: "notList", URL: notList.URL},
			model.ServiceDescriptor{Name: "noConfig", URL: noConfig.URL},
			model.ServiceDescriptor{Name: "failing", URL: failing.URL},
			model.ServiceDescriptor{Name: "unreachable", URL: "http://127.0.0.1:1"},
		),
		Cache: newMemCache(),
	})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, featureJSON(features))
}

func TestFeatureCollector_CollectAll_NoServicesIsEmptyList(t *testing.T) {
	t.Parallel()

	c := NewFeatureCollector(FeatureCollectorConfig{Registry: staticRegistry(), Cache: newMemCache()})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, features)
	assert.Empty(t, features)
}

func TestFeatureCollector_CollectAll_CacheUnavailable(t *testing.T) {
	t.Parallel()

	a := peer(t, `{"config":{"features":[{"id":1}]}}`, nil)
	cache := newMemCache()
	cache.getErr = errors.New("cache down")
	cache.setErr = errors.New("cache down")

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(model.ServiceDescriptor{Name: "A", URL: a.URL}),
		Cache:    cache,
	})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, featureJSON(features))
}

func TestFeatureCollector_CollectAll_MalformedCacheEntryIsMiss(t *testing.T) {
	t.Parallel()

	a := peer(t, `{"config":{"features":[{"id":1}]}}`, nil)
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), FeatureCacheKey, []byte("not json"), time.Minute))

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(model.ServiceDescriptor{Name: "A", URL: a.URL}),
		Cache:    cache,
	})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, featureJSON(features))
}

func TestFeatureCollector_CollectAll_FanoutLimitPreservesOrder(t *testing.T) {
	t.Parallel()

	var services []model.ServiceDescriptor
	for i := 0; i < 5; i++ {
		srv := peer(t, fmt.Sprintf(`{"config":{"features":[{"id":%d}]}}`, i), nil)
		services = append(services, model.ServiceDescriptor{Name: fmt.Sprintf("s%d", i), URL: srv.URL})
	}

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry:    staticRegistry(services...),
		Cache:       newMemCache(),
		FanoutLimit: 2,
	})

	features, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":0},{"id":1},{"id":2},{"id":3},{"id":4}]`, featureJSON(features))
}

func TestFeatureCollector_Refresh_BypassesCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	a := peer(t, `{"config":{"features":[{"id":1}]}}`, &hits)
	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(model.ServiceDescriptor{Name: "A", URL: a.URL}),
		Cache:    newMemCache(),
	})
	ctx := context.Background()

	_, err := c.CollectAll(ctx)
	require.NoError(t, err)
	_, err = c.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestMergePeerResults_DropsFailures(t *testing.T) {
	t.Parallel()

	results := []peerResult{
		{service: model.ServiceDescriptor{Name: "a"}, features: []model.FeatureObject{model.FeatureObject(`"a1"`), model.FeatureObject(`"a2"`)}},
		{service: model.ServiceDescriptor{Name: "b"}, err: errors.New("timeout")},
		{service: model.ServiceDescriptor{Name: "c"}},
		{service: model.ServiceDescriptor{Name: "d"}, features: []model.FeatureObject{model.FeatureObject(`"d1"`)}},
	}

	assert.JSONEq(t, `["a1","a2","d1"]`, featureJSON(mergePeerResults(results)))
}

func TestExtractFeatures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"features list", `{"config":{"features":[{"id":1}]}}`, `[{"id":1}]`, false},
		{"features not a list", `{"config":{"features":"x"}}`, `null`, false},
		{"no config", `{"name":"x"}`, `null`, false},
		{"config not an object", `{"config":[1]}`, `null`, false},
		{"top-level array", `[1,2]`, `null`, false},
		{"invalid json", `{"config":`, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractFeatures([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, featureJSON(got))
		})
	}
}

// ============================================================================
// CollectFull Tests
// ============================================================================

func TestFeatureCollector_CollectFull(t *testing.T) {
	t.Parallel()

	body := `{"name":"auth","version":"1.0.0","config":{"features":[{"id":1}],"extra":true}}`
	auth := peer(t, body, nil)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	garbage := peer(t, `<html>`, nil)

	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry: staticRegistry(
			model.ServiceDescriptor{Name: "auth", URL: auth.URL + "/"},
			model.ServiceDescriptor{Name: "broken", URL: broken.URL},
			model.ServiceDescriptor{Name: "garbage", URL: garbage.URL},
		),
		Cache: newMemCache(),
	})
	ctx := context.Background()

	raw, err := c.CollectFull(ctx, "auth")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(raw))

	_, err = c.CollectFull(ctx, "missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = c.CollectFull(ctx, "broken")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = c.CollectFull(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFeatureCollector_CollectFull_Timeout(t *testing.T) {
	t.Parallel()

	slow := slowPeer(t)
	c := NewFeatureCollector(FeatureCollectorConfig{
		Registry:    staticRegistry(model.ServiceDescriptor{Name: "slow", URL: slow.URL}),
		Cache:       newMemCache(),
		PeerTimeout: 50 * time.Millisecond,
	})

	_, err := c.CollectFull(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFeatureCollector_CollectFull_RegistryDown(t *testing.T) {
	t.Parallel()

	reg := &mockRegistry{
		getFunc: func(ctx context.Context, name string) (*model.ServiceDescriptor, error) {
			return nil, registry.ErrRegistryUnavailable
		},
	}
	c := NewFeatureCollector(FeatureCollectorConfig{Registry: reg, Cache: newMemCache()})

	_, err := c.CollectFull(context.Background(), "auth")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, errors.Is(err, ErrServiceNotFound))
}
