// Package warehouse creates the warehouse schema and loads prepared CSVs
// into it.
//
// The warehouse is reached through database/sql via sqlx, so the same code
// serves the default SQLite file and a PostgreSQL server. The dialect is
// picked from the driver name the handle was opened with.
package warehouse

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Dialect describes the SQL flavor of a warehouse driver.
type Dialect struct {
	Name   string // schema directory under schema/
	Driver string // database/sql driver name
}

var dialects = map[string]Dialect{
	DriverSQLite:   {Name: "sqlite", Driver: DriverSQLite},
	DriverPostgres: {Name: "postgres", Driver: DriverPostgres},
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown warehouse driver %q (want %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
	return d, nil
}
