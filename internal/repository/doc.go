// Package repository implements the data access layer for the config broker.
//
// Repositories wrap a database.Database and speak SurrealQL. Results are
// parsed out of the {status, result} envelope and mapped to model structs.
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::record('config_entry', $key) so the key is the record id
//   - time::now() for automatic timestamps
//
// # Errors
//
// Lookups of absent records return nil, nil. Mutations of absent records
// return database.ErrNotFound, and creating a key that already exists
// returns database.ErrDuplicate:
//
//	repo := NewConfigRepository(db)
//	if _, err := repo.Create(ctx, "redis", "redis:6379"); errors.Is(err, database.ErrDuplicate) {
//	    // key already set
//	}
package repository
