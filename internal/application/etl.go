// Package application wires configuration, the cleaning pipelines and the
// warehouse loader into the stages the commands run.
package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
	"github.com/JonMunkholm/salesdw/internal/logging"
	"github.com/JonMunkholm/salesdw/internal/warehouse"
)

// Bootstrap loads .env if present, reads the configuration and installs
// the default logger.
func Bootstrap() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

// Main bootstraps, runs fn with a fresh run ID and exits with status 1 if
// either fails.
func Main(stage string, fn func(ctx context.Context, cfg *config.Config) error) {
	cfg, err := Bootstrap()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(logging.ContextWithRunID(context.Background()), os.Interrupt, syscall.SIGTERM)
	err = fn(ctx, cfg)
	stop()

	if err != nil {
		LogFailure(ctx, stage, err)
		os.Exit(1)
	}
}

// LogFailure logs err with its error code. Errors matching a known
// pattern also carry the operator message and action.
func LogFailure(ctx context.Context, stage string, err error) {
	args := []any{"code", core.ErrorCode(err), "error", err}
	if core.IsUserFacing(err) {
		args = append(args, "hint", core.FormatUserError(err))
	}
	logging.FromContext(ctx).Error(stage+" failed", args...)
}

// Prepare cleans one entity: it reads the raw CSV, runs the cleaning
// pipeline and writes the prepared CSV.
func Prepare(ctx context.Context, cfg *config.Config, key string) (*core.Report, error) {
	def, ok := core.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown table %q (want one of %s)", key, strings.Join(core.Keys(), ", "))
	}
	logger := logging.WithFields(ctx, "table", key)
	logger.Info("STARTING " + strings.ToUpper(def.Info.Label) + " PREPARATION")

	raw, err := core.ReadEntity(cfg.Data.RawPath(def.Info.RawFile), def)
	if err != nil {
		return nil, err
	}
	logger.Debug("distinct values per column", "counts", raw.DistinctCounts())
	logger.Debug("null values per column", "counts", raw.NullCounts())

	cleaned, report, err := core.NewPipeline(def).Run(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := core.WritePrepared(cfg.Data.PreparedPath(def.Info.PreparedFile), cleaned); err != nil {
		return nil, err
	}

	logger.Info("FINISHED "+strings.ToUpper(def.Info.Label)+" PREPARATION",
		"input", report.Input,
		"output", report.Output,
		"removed", report.Removed(),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// PrepareAll prepares the given entities in order, or every registered
// entity when keys is empty. It stops at the first failure.
func PrepareAll(ctx context.Context, cfg *config.Config, keys ...string) ([]*core.Report, error) {
	if len(keys) == 0 {
		for _, def := range core.All() {
			keys = append(keys, def.Info.Key)
		}
	}

	reports := make([]*core.Report, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := Prepare(ctx, cfg, key)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// PreparedFiles returns the prepared CSV paths the loader reads.
func PreparedFiles(cfg *config.Config) warehouse.PreparedSet {
	path := func(key string) string {
		def, _ := core.Get(key)
		return cfg.Data.PreparedPath(def.Info.PreparedFile)
	}
	return warehouse.PreparedSet{
		Customers: path(tables.Customers),
		Products:  path(tables.Products),
		Sales:     path(tables.Sales),
	}
}

// OpenWarehouse opens and pings the configured warehouse. For SQLite the
// parent directory of the database file is created first.
func OpenWarehouse(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if _, err := warehouse.DialectFor(cfg.Warehouse.Driver); err != nil {
		return nil, &core.SchemaError{Code: core.CodeSchemaDDL, Err: err}
	}

	sqlite := cfg.Warehouse.Driver == warehouse.DriverSQLite
	if sqlite && !strings.HasPrefix(cfg.Warehouse.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Warehouse.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create warehouse dir: %w", err)
		}
	}

	db, err := sqlx.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if sqlite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	return db, nil
}

// Load ensures the warehouse schema and replaces its contents with the
// prepared CSVs. The connection is closed before returning.
func Load(ctx context.Context, cfg *config.Config) (*warehouse.LoadResult, error) {
	logger := logging.FromContext(ctx)
	logger.Info("STARTING WAREHOUSE LOAD", "driver", cfg.Warehouse.Driver)

	ctx, cancel := context.WithTimeout(ctx, cfg.Warehouse.Timeout)
	defer cancel()

	db, err := OpenWarehouse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := warehouse.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}

	loader := warehouse.NewLoader(db, warehouse.LoaderOptions{BatchSize: cfg.Warehouse.BatchSize})
	result, err := loader.Load(ctx, PreparedFiles(cfg))
	if err != nil {
		return nil, err
	}

	logger.Info("FINISHED WAREHOUSE LOAD",
		"run_id", result.RunID,
		"customers", result.Customers,
		"products", result.Products,
		"sales", result.Sales,
	)
	return result, nil
}

// Run prepares every entity and then loads the warehouse.
func Run(ctx context.Context, cfg *config.Config) (*warehouse.LoadResult, error) {
	if _, err := PrepareAll(ctx, cfg); err != nil {
		return nil, err
	}
	return Load(ctx, cfg)
}

// LastRun reports the most recent warehouse load, or nil if there is none.
func LastRun(ctx context.Context, cfg *config.Config) (*warehouse.LoadRun, error) {
	db, err := OpenWarehouse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := warehouse.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return warehouse.NewLoader(db, warehouse.LoaderOptions{}).LastRun(ctx)
}
