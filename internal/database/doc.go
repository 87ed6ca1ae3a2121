// Package database provides database connectivity for the config broker.
//
// The database package abstracts SurrealDB operations and provides
// a consistent interface for the config store and the shared feature cache.
//
// # Connection Management
//
// Connect to SurrealDB:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "secondlock",
//	    Database:  "conf",
//	    User:      "root",
//	    Password:  "secret",
//	})
//	err := db.Connect(ctx)
//
// # Result Shape
//
// Query returns one element per statement, each shaped as
// {"status": "OK", "result": ...}. QueryOne unwraps the first record of the
// first statement and reports ErrNotFound when the statement produced none.
package database
