package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent so
// it is safe to run on each start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	db.log.Info("database schema applied")
	return nil
}

// MigrateHook adapts Migrate to bootstrap.WithDBInitHook
func MigrateHook(ctx context.Context) func(*DB) error {
	return func(db *DB) error {
		return db.Migrate(ctx)
	}
}
