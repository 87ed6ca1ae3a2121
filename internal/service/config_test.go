package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockConfigRepo struct {
	getFunc       func(ctx context.Context, key string) (*model.StoredConfigEntry, error)
	getAllFunc    func(ctx context.Context) ([]*model.StoredConfigEntry, error)
	createFunc    func(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	updateFunc    func(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	deleteFunc    func(ctx context.Context, key string) error
	deleteAllFunc func(ctx context.Context) error
}

func (m *mockConfigRepo) Get(ctx context.Context, key string) (*model.StoredConfigEntry, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockConfigRepo) GetAll(ctx context.Context) ([]*model.StoredConfigEntry, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockConfigRepo) Create(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, key, content)
	}
	return stored(key, content), nil
}

func (m *mockConfigRepo) Update(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, key, content)
	}
	return stored(key, content), nil
}

func (m *mockConfigRepo) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func (m *mockConfigRepo) DeleteAll(ctx context.Context) error {
	if m.deleteAllFunc != nil {
		return m.deleteAllFunc(ctx)
	}
	return nil
}

// memConfigRepo is a map-backed ConfigRepository with store semantics
type memConfigRepo struct {
	mu      sync.Mutex
	entries map[string]interface{}
	order   []string
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{entries: map[string]interface{}{}}
}

func (m *memConfigRepo) Get(_ context.Context, key string) (*model.StoredConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return stored(key, v), nil
}

func (m *memConfigRepo) GetAll(_ context.Context) ([]*model.StoredConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.StoredConfigEntry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, stored(k, m.entries[k]))
	}
	return out, nil
}

func (m *memConfigRepo) Create(_ context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return nil, database.ErrDuplicate
	}
	m.entries[key] = content
	m.order = append(m.order, key)
	return stored(key, content), nil
}

func (m *memConfigRepo) Update(_ context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return nil, database.ErrNotFound
	}
	m.entries[key] = content
	return stored(key, content), nil
}

func (m *memConfigRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return database.ErrNotFound
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memConfigRepo) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]interface{}{}
	m.order = nil
	return nil
}

type mapDefaults map[string]interface{}

func (d mapDefaults) Lookup(key string) (interface{}, bool) {
	v, ok := d[key]
	return v, ok
}

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func stored(key string, content interface{}) *model.StoredConfigEntry {
	return &model.StoredConfigEntry{ConfigEntry: model.ConfigEntry{Key: key, Content: content}}
}

func newTestConfigService(repo ConfigRepository, defaults DefaultsProvider, env map[string]string) *ConfigService {
	return NewConfigService(ConfigServiceConfig{
		ConfigRepo: repo,
		Defaults:   defaults,
		LookupEnv:  envFrom(env),
	})
}

// ============================================================================
// Get Tests
// ============================================================================

func TestConfigService_Get_NoLayerReturnsEmptyString(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), mapDefaults{}, nil)

	for _, key := range []string{"unknown", "redis", "a.b.c"} {
		entry := svc.Get(context.Background(), key)
		if entry.Key != key {
			t.Errorf("expected key %q, got %q", key, entry.Key)
		}
		if entry.Content != "" {
			t.Errorf("expected empty content for %q, got %v", key, entry.Content)
		}
	}
}

func TestConfigService_Get_PersistedLayerWins(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	_, _ = repo.Create(context.Background(), "redis", "stored:6379")

	svc := newTestConfigService(repo,
		mapDefaults{"redis": "default:6379"},
		map[string]string{"redis": "env:6379"},
	)

	entry := svc.Get(context.Background(), "redis")
	if entry.Content != "stored:6379" {
		t.Errorf("expected persisted content, got %v", entry.Content)
	}
}

func TestConfigService_Get_FactoryDefaultBeatsEnvironment(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(),
		mapDefaults{"mail": map[string]interface{}{"host": "smtp"}},
		map[string]string{"mail": "env-mail"},
	)

	entry := svc.Get(context.Background(), "mail")
	content, ok := entry.Content.(map[string]interface{})
	if !ok || content["host"] != "smtp" {
		t.Errorf("expected factory default, got %v", entry.Content)
	}
}

func TestConfigService_Get_EnvironmentFallback(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), mapDefaults{}, map[string]string{"SECONDLOCK_URL": "https://sl"})

	entry := svc.Get(context.Background(), "SECONDLOCK_URL")
	if entry.Content != "https://sl" {
		t.Errorf("expected env value, got %v", entry.Content)
	}
}

func TestConfigService_Get_EmptyEnvironmentValueCounts(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), nil, map[string]string{"EMPTY": ""})

	entry := svc.Get(context.Background(), "EMPTY")
	if entry.Content != "" {
		t.Errorf("expected empty env value, got %v", entry.Content)
	}
}

func TestConfigService_Get_StoreErrorFallsThrough(t *testing.T) {
	t.Parallel()

	repo := &mockConfigRepo{
		getFunc: func(ctx context.Context, key string) (*model.StoredConfigEntry, error) {
			return nil, database.ErrConnection
		},
	}
	svc := newTestConfigService(repo, mapDefaults{"redis": "default:6379"}, nil)

	entry := svc.Get(context.Background(), "redis")
	if entry.Content != "default:6379" {
		t.Errorf("expected factory default after store error, got %v", entry.Content)
	}
}

// ============================================================================
// Set Tests
// ============================================================================

func TestConfigService_Set_SecondSetFails(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	svc := newTestConfigService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("first set: %v", err)
	}

	_, err := svc.Set(ctx, "k", "v2")
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}

	if got := svc.Get(ctx, "k").Content; got != "v" {
		t.Errorf("expected stored content to remain 'v', got %v", got)
	}
}

func TestConfigService_Set_RaceLostIsExists(t *testing.T) {
	t.Parallel()

	repo := &mockConfigRepo{
		createFunc: func(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
			return nil, database.ErrDuplicate
		},
	}
	svc := newTestConfigService(repo, nil, nil)

	_, err := svc.Set(context.Background(), "k", "v")
	if !errors.Is(err, ErrConfigExists) {
		t.Errorf("expected ErrConfigExists, got %v", err)
	}
}

func TestConfigService_Set_IgnoresLowerLayers(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), mapDefaults{"k": "default"}, map[string]string{"k": "env"})

	if _, err := svc.Set(context.Background(), "k", "v"); err != nil {
		t.Errorf("set should only consult the store, got %v", err)
	}
}

func TestConfigService_Set_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	repo := &mockConfigRepo{
		getFunc: func(ctx context.Context, key string) (*model.StoredConfigEntry, error) {
			return nil, database.ErrConnection
		},
	}
	svc := newTestConfigService(repo, nil, nil)

	_, err := svc.Set(context.Background(), "k", "v")
	if !errors.Is(err, database.ErrConnection) {
		t.Errorf("expected wrapped ErrConnection, got %v", err)
	}
}

func TestConfigService_Set_EmptyKey(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), nil, nil)

	if _, err := svc.Set(context.Background(), "", "v"); !errors.Is(err, ErrKeyRequired) {
		t.Errorf("expected ErrKeyRequired, got %v", err)
	}
}

// ============================================================================
// Update / Delete Tests
// ============================================================================

func TestConfigService_Update_MissingKey(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(newMemConfigRepo(), mapDefaults{"k": "default"}, nil)

	_, err := svc.Update(context.Background(), "k", "v2")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestConfigService_Update_ReplacesContent(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	svc := newTestConfigService(repo, nil, nil)
	ctx := context.Background()

	_, _ = svc.Set(ctx, "k", "v")
	if _, err := svc.Update(ctx, "k", "v2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := svc.Get(ctx, "k").Content; got != "v2" {
		t.Errorf("expected 'v2', got %v", got)
	}
}

func TestConfigService_Delete(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	svc := newTestConfigService(repo, nil, nil)
	ctx := context.Background()

	_, _ = svc.Set(ctx, "k", "v")
	if err := svc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "k"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound on second delete, got %v", err)
	}
	if got := svc.Get(ctx, "k").Content; got != "" {
		t.Errorf("expected empty content after delete, got %v", got)
	}
}

func TestConfigService_DeleteAll(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	svc := newTestConfigService(repo, nil, nil)
	ctx := context.Background()

	_, _ = svc.Set(ctx, "a", 1)
	_, _ = svc.Set(ctx, "b", 2)

	if err := svc.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	entries, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}

// ============================================================================
// GetAll Tests
// ============================================================================

func TestConfigService_GetAll_NilStoreResultIsEmpty(t *testing.T) {
	t.Parallel()

	svc := newTestConfigService(&mockConfigRepo{}, nil, nil)

	entries, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries == nil {
		t.Error("expected non-nil empty collection")
	}
}

func TestConfigService_GetAll_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	repo := newMemConfigRepo()
	svc := newTestConfigService(repo, nil, nil)
	ctx := context.Background()

	for _, k := range []string{"c", "a", "b"} {
		_, _ = svc.Set(ctx, k, k)
	}

	entries, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 || entries[0].Key != "c" || entries[1].Key != "a" || entries[2].Key != "b" {
		t.Errorf("unexpected order: %v", entries)
	}
}
