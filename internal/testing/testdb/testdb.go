// Package testdb provides isolated SurrealDB environments for integration
// tests.
//
// Every TestDB gets its own namespace with the embedded migrations applied,
// so repository tests run real SurrealQL against a real server. Tests skip
// unless TEST_DB_HOST is set.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    repo := repository.NewConfigRepository(tdb.DB)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/migrations"
)

// Tables cleared by Reset
var Tables = []string{"config_entry", "cache_entry"}

// TestDB provides an isolated database environment for testing.
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	counterMu sync.Mutex
	counter   int64
)

func getTestConfig() (database.Config, bool) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return database.Config{}, false
	}

	return database.Config{
		Host:     host,
		Port:     getEnv("TEST_DB_PORT", "8000"),
		User:     getEnv("TEST_DB_USER", "root"),
		Password: getEnv("TEST_DB_PASSWORD", "root"),
	}, true
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New creates a new isolated test database with migrations applied.
// Call Close() when done to remove the namespace.
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg, ok := getTestConfig()
	if !ok {
		t.Skip("testdb: TEST_DB_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: %v", err)
	}

	return &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}
}

// Close removes the test namespace and closes the connection.
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
}

// Reset clears all rows while preserving the schema.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	for _, table := range Tables {
		if err := tdb.DB.Execute(tdb.Ctx(t), "DELETE "+table, nil); err != nil {
			t.Fatalf("testdb: failed to clear %s: %v", table, err)
		}
	}
}

// Ctx returns a context bounded by the test's lifetime.
func (tdb *TestDB) Ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(tdb.t), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error.
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(tdb.t), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}
