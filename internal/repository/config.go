package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// ConfigRepository handles persisted configuration entries.
// Each entry is stored as config_entry:<key>, so a key maps to at most one record.
type ConfigRepository struct {
	db database.Database
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db database.Database) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get retrieves the entry for key. Returns nil, nil when no entry exists.
func (r *ConfigRepository) Get(ctx context.Context, key string) (*model.StoredConfigEntry, error) {
	query := `SELECT key, content, created_on, updated_on FROM type::record('config_entry', $key)`
	vars := map[string]interface{}{"key": key}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseConfigEntry(result)
}

// GetAll retrieves every persisted entry in creation order.
// The result is never nil.
func (r *ConfigRepository) GetAll(ctx context.Context) ([]*model.StoredConfigEntry, error) {
	query := `SELECT key, content, created_on, updated_on FROM config_entry ORDER BY created_on ASC`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	records := database.Records(results)
	entries := make([]*model.StoredConfigEntry, 0, len(records))
	for _, rec := range records {
		entry, err := parseConfigEntry(rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Create persists a new entry. Returns database.ErrDuplicate if key is taken.
func (r *ConfigRepository) Create(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	query := `
		CREATE type::record('config_entry', $key) CONTENT {
			key: $key,
			content: $content,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"key":     key,
		"content": content,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: config entry %q", database.ErrDuplicate, key)
		}
		return nil, err
	}

	return parseConfigEntry(result)
}

// Update replaces the content of an existing entry.
// Returns database.ErrNotFound if key has no entry.
func (r *ConfigRepository) Update(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error) {
	query := `
		UPDATE type::record('config_entry', $key) SET
			content = $content,
			updated_on = time::now()
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"key":     key,
		"content": content,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseConfigEntry(result)
}

// Delete removes the entry for key.
// Returns database.ErrNotFound if key has no entry.
func (r *ConfigRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE type::record('config_entry', $key) RETURN BEFORE`
	vars := map[string]interface{}{"key": key}

	_, err := r.db.QueryOne(ctx, query, vars)
	return err
}

// DeleteAll removes every persisted entry
func (r *ConfigRepository) DeleteAll(ctx context.Context) error {
	return r.db.Execute(ctx, `DELETE config_entry`, nil)
}

// Ping reports whether the underlying store is reachable
func (r *ConfigRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func parseConfigEntry(result interface{}) (*model.StoredConfigEntry, error) {
	data, ok := asRecord(result)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected config entry shape %T", database.ErrQuery, result)
	}

	entry := &model.StoredConfigEntry{
		ConfigEntry: model.ConfigEntry{
			Key:     getString(data, "key"),
			Content: normalizeValue(data["content"]),
		},
		CreatedOn: parseTime(data["created_on"]),
		UpdatedOn: parseTime(data["updated_on"]),
	}
	return entry, nil
}
