package core

import "strings"

// ResolveDBColumn returns the warehouse column name for a given field name.
// It checks the FieldSpecs for a DBColumn mapping, falling back to snake_case conversion.
func ResolveDBColumn(col string, specs []FieldSpec) string {
	for _, spec := range specs {
		if strings.EqualFold(spec.Name, col) && spec.DBColumn != "" {
			return spec.DBColumn
		}
	}
	return toDBColumnName(col)
}

// ResolveDBColumns returns warehouse column names for multiple field names.
func ResolveDBColumns(cols []string, specs []FieldSpec) []string {
	result := make([]string, len(cols))
	for i, col := range cols {
		result[i] = ResolveDBColumn(col, specs)
	}
	return result
}

func toDBColumnName(name string) string {
	// Replace spaces with underscores and convert to lowercase
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
