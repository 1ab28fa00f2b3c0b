package warehouse

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/salesdw/internal/core"
)

// ColumnMapping renames one prepared column to its warehouse column.
type ColumnMapping struct {
	Source string // column in the prepared CSV
	Target string // column in the warehouse table
}

// Mapping is the explicit rename table for one entity.
type Mapping struct {
	Table   string // warehouse table
	Columns []ColumnMapping
}

// Targets returns the warehouse column names in mapping order.
func (m Mapping) Targets() []string {
	out := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = c.Target
	}
	return out
}

// Apply returns a table holding only the mapped columns, renamed to their
// targets and in mapping order. A mapped source column missing from t
// becomes an all-null column. t is not modified.
func (m Mapping) Apply(t *core.Table) *core.Table {
	out := core.NewTable(m.Targets())

	src := make([]int, len(m.Columns))
	for i, c := range m.Columns {
		src[i] = t.ColumnIndex(c.Source)
	}

	out.Rows = make([][]pgtype.Text, len(t.Rows))
	for r, row := range t.Rows {
		next := make([]pgtype.Text, len(src))
		for i, idx := range src {
			if idx >= 0 {
				next[i] = row[idx]
			}
		}
		out.Rows[r] = next
	}
	return out
}

// MappingFromDefinition builds the rename table of an entity from its
// field specs (Name -> DBColumn).
func MappingFromDefinition(def core.TableDefinition) Mapping {
	sources := make([]string, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		sources[i] = spec.Name
	}

	m := Mapping{Table: def.Info.WarehouseTable}
	for i, target := range core.ResolveDBColumns(sources, def.FieldSpecs) {
		m.Columns = append(m.Columns, ColumnMapping{Source: sources[i], Target: target})
	}
	return m
}

// DefaultMappings returns the rename tables of all registered entities,
// keyed by entity key.
func DefaultMappings() map[string]Mapping {
	out := make(map[string]Mapping)
	for _, def := range core.All() {
		out[def.Info.Key] = MappingFromDefinition(def)
	}
	return out
}
