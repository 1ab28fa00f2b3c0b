package core

// validation.go checks a raw header against an entity's field specs before
// any row is read.

import (
	"fmt"
	"strings"
)

// MissingColumns returns the Required and Key columns t lacks. Names must
// match exactly, the way the cleaning steps look columns up.
func MissingColumns(t *Table, specs []FieldSpec) []string {
	var missing []string
	for _, spec := range specs {
		if (spec.Required || spec.Key) && !t.HasColumn(spec.Name) {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

// ValidateHeaders checks that every Required and Key column exists in the
// cleaned header under its exact name. A "customerid" header does not
// satisfy a "CustomerID" spec.
// Returns the header index, or an error listing the missing columns.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	if missing := MissingColumns(NewTable(headers), specs); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return MakeHeaderIndex(headers), nil
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldInteger:
		return "integer"
	case FieldReal:
		return "real"
	case FieldDate:
		return "date"
	default:
		return "value"
	}
}

// String implements fmt.Stringer.
func (ft FieldType) String() string {
	return fieldTypeName(ft)
}
