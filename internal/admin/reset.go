// Package admin provides administrative operations for warehouse management.
package admin

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/logging"
	"github.com/JonMunkholm/salesdw/internal/warehouse"
)

// ResetTimeout is the maximum duration for warehouse reset operations.
const ResetTimeout = 30 * time.Second

type resetFn func(ctx context.Context, tx *sqlx.Tx) error

// ResetAll empties every warehouse table and the load history in one
// transaction, children first. Missing tables are created first, so a
// warehouse that was never loaded resets to an empty schema.
// This is a destructive operation - use with caution.
func ResetAll(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	if err := warehouse.EnsureSchema(ctx, db); err != nil {
		return err
	}

	resets := make([]resetFn, 0, len(warehouse.Tables))
	for i := len(warehouse.Tables) - 1; i >= 0; i-- {
		resets = append(resets, deleteAll(warehouse.Tables[i].Name))
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return &core.LoadError{Code: core.CodeLoadBegin, Err: err}
	}
	defer tx.Rollback()

	if err := runResets(ctx, tx, resets); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &core.LoadError{Code: core.CodeLoadCommit, Err: err}
	}

	logging.FromContext(ctx).Info("warehouse reset", "tables", len(resets))
	return nil
}

func deleteAll(table string) resetFn {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &core.LoadError{Code: core.CodeLoadDelete, Table: table, Err: err}
		}
		return nil
	}
}

func runResets(ctx context.Context, tx *sqlx.Tx, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}
