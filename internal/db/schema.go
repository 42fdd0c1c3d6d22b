package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Open opens (creating when missing) the sqlite archive at path and makes
// sure the schema exists, ":memory:" opens a throwaway database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive between calls
	database.SetMaxOpenConns(1)

	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema to %s: %w", path, err)
	}
	return database, nil
}
