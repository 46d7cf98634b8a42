// Package pg provides PostgreSQL connectivity for bun-based stores.
//
// It builds a pgx connection pool, wraps it in a *bun.DB with query logging and
// OpenTelemetry hooks, and classifies driver errors for callers.
package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rise-and-shine/vidstream/pg/hooks"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"
)

// NewBunDB creates a *bun.DB backed by a pgx pool built from cfg.
func NewBunDB(ctx context.Context, cfg Config) (*bun.DB, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	ApplyHooks(db, cfg.Debug, cfg.Database)

	return db, nil
}

// ApplyHooks installs the query logging hook (active only when debug is set) and
// the OpenTelemetry hook on db. It is dialect agnostic.
func ApplyHooks(db *bun.DB, debug bool, dbName string) {
	db.AddQueryHook(
		hooks.NewDebugHook(
			hooks.WithEnabled(debug),
			hooks.WithVerbose(true),
		),
	)
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(dbName)))
}
