// Package migrations holds the embedded goose schema for the validator
// database.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedded embed.FS

// Run applies all pending migrations against db.
func Run(db *sql.DB) error {
	return RunContext(context.Background(), db)
}

// RunContext is Run with cancellation.
func RunContext(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedded)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version. It does not touch goose's
// package-level state, so it is safe to call from concurrent requests.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, embedded)
	if err != nil {
		return 0, fmt.Errorf("creating migration provider: %w", err)
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
