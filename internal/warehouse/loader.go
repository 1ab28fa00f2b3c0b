package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
	"github.com/JonMunkholm/salesdw/internal/logging"
)

// DefaultBatchSize is the number of rows per multi-row INSERT.
const DefaultBatchSize = 500

// PreparedSet holds the paths of the three prepared CSVs.
type PreparedSet struct {
	Customers string
	Products  string
	Sales     string
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Mappings are the rename tables keyed by entity key
	// (tables.Customers, tables.Products, tables.Sales).
	// Defaults to DefaultMappings().
	Mappings map[string]Mapping

	// BatchSize is the number of rows per INSERT statement.
	BatchSize int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// LoadResult contains the outcome of a successful load.
type LoadResult struct {
	RunID      string
	Customers  int
	Products   int
	Sales      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the load took.
func (r *LoadResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Loader overwrites the warehouse tables with the prepared CSVs.
type Loader struct {
	db   *sqlx.DB
	opts LoaderOptions
}

// NewLoader creates a Loader writing through db.
func NewLoader(db *sqlx.DB, opts LoaderOptions) *Loader {
	if opts.Mappings == nil {
		opts.Mappings = DefaultMappings()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Loader{db: db, opts: opts}
}

// prepared is the decoded content of a PreparedSet.
type prepared struct {
	customers []CustomerRecord
	products  []ProductRecord
	sales     []SaleRecord
}

// Load reads the prepared CSVs and replaces the contents of the customer,
// product and sale tables in one transaction. On any failure the
// transaction is rolled back and the warehouse keeps its prior contents.
func (l *Loader) Load(ctx context.Context, set PreparedSet) (*LoadResult, error) {
	logger := logging.FromContext(ctx)
	started := l.opts.Clock().UTC()

	data, err := l.read(set)
	if err != nil {
		return nil, err
	}
	logger.Info("prepared data decoded",
		"customers", len(data.customers),
		"products", len(data.products),
		"sales", len(data.sales),
	)

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &core.LoadError{Code: core.CodeLoadBegin, Err: err}
	}
	defer tx.Rollback()

	// Children first so foreign keys never dangle mid-transaction.
	for _, key := range []string{tables.Sales, tables.Products, tables.Customers} {
		table := l.opts.Mappings[key].Table
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return nil, &core.LoadError{Code: core.CodeLoadDelete, Table: table, Err: err}
		}
		n, _ := res.RowsAffected()
		logger.Info("cleared table", "table", table, "rows", n)
	}

	if err := insertBatches(ctx, tx, l.opts.Mappings[tables.Customers], data.customers, l.opts.BatchSize); err != nil {
		return nil, err
	}
	if err := insertBatches(ctx, tx, l.opts.Mappings[tables.Products], data.products, l.opts.BatchSize); err != nil {
		return nil, err
	}
	if err := insertBatches(ctx, tx, l.opts.Mappings[tables.Sales], data.sales, l.opts.BatchSize); err != nil {
		return nil, err
	}

	result := &LoadResult{
		RunID:     runID,
		Customers: len(data.customers),
		Products:  len(data.products),
		Sales:     len(data.sales),
		StartedAt: started,
	}
	result.FinishedAt = l.opts.Clock().UTC()

	run := LoadRun{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Customers:  result.Customers,
		Products:   result.Products,
		Sales:      result.Sales,
	}
	if _, err := tx.NamedExecContext(ctx, insertSQL("etl_load_run", loadRunColumns), run); err != nil {
		return nil, &core.LoadError{Code: core.CodeLoadInsert, Table: "etl_load_run", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &core.LoadError{Code: core.CodeLoadCommit, Err: err}
	}

	logger.Info("warehouse load committed",
		"run_id", result.RunID,
		"customers", result.Customers,
		"products", result.Products,
		"sales", result.Sales,
		"duration_ms", result.Duration().Milliseconds(),
	)
	return result, nil
}

// LastRun returns the most recent load history entry, or nil if the
// warehouse has never been loaded.
func (l *Loader) LastRun(ctx context.Context) (*LoadRun, error) {
	var run LoadRun
	err := l.db.GetContext(ctx, &run,
		"SELECT "+strings.Join(loadRunColumns, ", ")+" FROM etl_load_run ORDER BY finished_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last load run: %w", err)
	}
	return &run, nil
}

var loadRunColumns = []string{"run_id", "started_at", "finished_at", "customers", "products", "sales"}

func (l *Loader) read(set PreparedSet) (*prepared, error) {
	var (
		data prepared
		err  error
	)
	if data.customers, err = readPrepared[CustomerRecord](set.Customers, l.opts.Mappings[tables.Customers]); err != nil {
		return nil, err
	}
	if data.products, err = readPrepared[ProductRecord](set.Products, l.opts.Mappings[tables.Products]); err != nil {
		return nil, err
	}
	if data.sales, err = readPrepared[SaleRecord](set.Sales, l.opts.Mappings[tables.Sales]); err != nil {
		return nil, err
	}
	return &data, nil
}

// readPrepared reads one prepared CSV, renames its columns through m and
// decodes the rows.
func readPrepared[T any](path string, m Mapping) ([]T, error) {
	if len(m.Columns) == 0 {
		return nil, &core.LoadError{Code: core.CodeLoadDecode, Err: fmt.Errorf("no column mapping for %s", path)}
	}

	t, err := core.ReadRaw(path, core.HeaderTrim)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords[T](m.Apply(t))
	if err != nil {
		return nil, &core.LoadError{Code: core.CodeLoadDecode, Table: m.Table, Err: err}
	}
	return records, nil
}

// insertBatches inserts records into m.Table with multi-row named INSERTs
// of at most size rows.
func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, m Mapping, records []T, size int) error {
	logger := logging.WithFields(ctx, "table", m.Table)
	query := insertSQL(m.Table, m.Targets())

	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		if _, err := tx.NamedExecContext(ctx, query, records[start:end]); err != nil {
			return &core.LoadError{Code: core.CodeLoadInsert, Table: m.Table, Err: err}
		}
		logger.Debug("inserted batch", "from", start, "to", end)
	}

	logger.Info("inserted rows", "rows", len(records))
	return nil
}

// insertSQL builds "INSERT INTO t (a, b) VALUES (:a, :b)".
func insertSQL(table string, columns []string) string {
	params := make([]string, len(columns))
	for i, c := range columns {
		params[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(params, ", "))
}
