package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
)

// Surreal is a Cache shared by every broker replica, stored in the
// cache_entry table. Expired rows are never returned and are purged on write.
type Surreal struct {
	db database.Database
}

// NewSurreal creates a SurrealDB-backed cache
func NewSurreal(db database.Database) *Surreal {
	return &Surreal{db: db}
}

// Get implements Cache
func (s *Surreal) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM type::record('cache_entry', $key) WHERE expires_at > time::now()`
	vars := map[string]interface{}{"key": key}

	result, err := s.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var value interface{}
	switch row := result.(type) {
	case map[string]interface{}:
		value = row["value"]
	case map[interface{}]interface{}:
		value = row["value"]
	default:
		return nil, false, fmt.Errorf("%w: unexpected cache row %T", database.ErrQuery, result)
	}

	str, ok := value.(string)
	if !ok {
		return nil, false, nil
	}
	return []byte(str), true, nil
}

// Set implements Cache
func (s *Surreal) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	query := `
		DELETE cache_entry WHERE expires_at <= time::now();
		UPSERT type::record('cache_entry', $key) CONTENT {
			value: $value,
			expires_at: time::now() + type::duration($ttl)
		};
	`
	vars := map[string]interface{}{
		"key":   key,
		"value": string(value),
		"ttl":   fmt.Sprintf("%dms", ttl.Milliseconds()),
	}

	return s.db.Execute(ctx, query, vars)
}
