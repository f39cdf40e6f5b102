package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/algobytes/assembler/internal/handler/health"
	"github.com/algobytes/assembler/internal/migrations"
)

// HealthChecks returns the dependency checks served on /healthz.
func HealthChecks(db *sql.DB) map[string]health.Checker {
	return map[string]health.Checker{
		"sqlite": health.CheckerFunc(db.PingContext),
		"schema": health.CheckerFunc(func(ctx context.Context) error {
			v, err := migrations.Version(ctx, db)
			if err != nil {
				return err
			}
			if v < 1 {
				return fmt.Errorf("schema version %d, migrations not applied", v)
			}
			return nil
		}),
	}
}
