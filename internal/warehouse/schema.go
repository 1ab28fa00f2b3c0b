package warehouse

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/logging"
)

//go:embed schema
var schemaFS embed.FS

// TableSchema lists the columns a warehouse table must have.
type TableSchema struct {
	Name    string
	Columns []string
}

// Tables is the warehouse schema in dependency order: parents first.
var Tables = []TableSchema{
	{Name: "customer", Columns: []string{"customer_id", "name", "region", "join_date", "loyalty_points", "state"}},
	{Name: "product", Columns: []string{"product_id", "product_name", "category", "unit_price", "stock_quantity", "year_added", "supplier"}},
	{Name: "sale", Columns: []string{"transaction_id", "sale_date", "customer_id", "product_id", "store_id", "campaign_id", "sale_amount", "discount_percent", "payment_type"}},
	{Name: "etl_load_run", Columns: []string{"run_id", "started_at", "finished_at", "customers", "products", "sales"}},
}

// EnsureSchema creates every warehouse table that does not exist yet and
// then verifies that existing tables carry the expected columns.
// Safe to call on every run.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	logger := logging.FromContext(ctx)

	d, err := DialectFor(db.DriverName())
	if err != nil {
		return &core.SchemaError{Code: core.CodeSchemaDDL, Err: err}
	}

	stmts, err := schemaStatements(d)
	if err != nil {
		return &core.SchemaError{Code: core.CodeSchemaDDL, Err: err}
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return &core.SchemaError{Code: core.CodeSchemaDDL, Table: s.table, Err: err}
		}
		logger.Debug("ensured table", "table", s.table, "dialect", d.Name)
	}

	if err := VerifySchema(ctx, db); err != nil {
		return err
	}

	logger.Info("warehouse schema ready", "dialect", d.Name, "tables", len(stmts))
	return nil
}

// VerifySchema checks that every table in Tables exists with at least the
// expected columns.
func VerifySchema(ctx context.Context, db *sqlx.DB) error {
	for _, ts := range Tables {
		rows, err := db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", ts.Name))
		if err != nil {
			return &core.SchemaError{Code: core.CodeSchemaMismatch, Table: ts.Name, Err: err}
		}
		cols, err := rows.Columns()
		rows.Close()
		if err != nil {
			return &core.SchemaError{Code: core.CodeSchemaMismatch, Table: ts.Name, Err: err}
		}

		have := make(map[string]bool, len(cols))
		for _, c := range cols {
			have[strings.ToLower(c)] = true
		}
		var missing []string
		for _, c := range ts.Columns {
			if !have[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return &core.SchemaError{
				Code:  core.CodeSchemaMismatch,
				Table: ts.Name,
				Err:   fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")),
			}
		}
	}
	return nil
}

type schemaStatement struct {
	table string
	ddl   string
}

// schemaStatements reads the dialect's DDL files in name order.
// Files are named NNN_<table>.sql.
func schemaStatements(d Dialect) ([]schemaStatement, error) {
	dir := path.Join("schema", d.Name)
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var stmts []schemaStatement
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		ddl, err := fs.ReadFile(schemaFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		table := strings.TrimSuffix(e.Name(), ".sql")
		if _, rest, ok := strings.Cut(table, "_"); ok {
			table = rest
		}
		stmts = append(stmts, schemaStatement{table: table, ddl: string(ddl)})
	}
	return stmts, nil
}
