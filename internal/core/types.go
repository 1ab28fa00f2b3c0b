package core

import "math"

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldReal
	FieldDate
)

// IsNumeric reports whether values of this type are parsed as numbers.
func (ft FieldType) IsNumeric() bool {
	return ft == FieldInteger || ft == FieldReal
}

// MissingPolicy says what HandleMissing does with a null cell.
type MissingPolicy int

const (
	MissingKeep    MissingPolicy = iota // leave the null in place
	MissingDrop                         // drop the whole row
	MissingDefault                      // fill with FieldSpec.Default
	MissingMedian                       // fill with the column median
)

// CaseStyle is the case normalization applied by StandardizeFormats.
type CaseStyle int

const (
	CaseNone CaseStyle = iota
	CaseTitle
	CaseLower
)

// HeaderStyle controls how raw header names are cleaned on read.
type HeaderStyle int

const (
	// HeaderTrim trims surrounding whitespace and keeps the casing.
	HeaderTrim HeaderStyle = iota
	// HeaderSnake trims, lower-cases and replaces each space with an underscore.
	HeaderSnake
)

// Bounds is an inclusive numeric range. Use math.Inf for an open side.
type Bounds struct {
	Min float64
	Max float64
}

// Between returns the closed range [min, max].
func Between(min, max float64) *Bounds {
	return &Bounds{Min: min, Max: max}
}

// AtLeast returns the range [min, +Inf).
func AtLeast(min float64) *Bounds {
	return &Bounds{Min: min, Max: math.Inf(1)}
}

// Contains reports whether v lies inside the range.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// FieldSpec defines the cleaning rules for a single CSV column.
type FieldSpec struct {
	Name     string        // Column header name after header cleaning
	DBColumn string        // Warehouse column name
	Type     FieldType     // Expected data type
	Required bool          // Column must exist in the raw header
	Key      bool          // Identifier: rows without it are dropped and duplicates are removed
	Missing  MissingPolicy // What to do with null cells
	Default  string        // Fill value for MissingDefault
	Case     CaseStyle     // Case normalization for text columns
	Round    int           // Decimals to round real values to (0 leaves them as is)
	Outlier  *Bounds       // Fixed outlier bounds; null fails
	IQR      bool          // Drop values outside the 1.5x interquartile fence
	Rule     *Bounds       // Business rule range checked by Validate; null fails
}

// TableInfo contains descriptive information about an entity.
type TableInfo struct {
	Key            string      // Unique identifier: "customers"
	Label          string      // Display name: "Customers"
	RawFile        string      // Raw extract file name
	PreparedFile   string      // Cleaned output file name
	HeaderStyle    HeaderStyle // Header cleaning applied by ReadRaw
	WarehouseTable string      // Target warehouse table
	LoadOrder      int         // Parents load before children
}

// TableDefinition contains everything needed to clean one entity.
type TableDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec
}

// Spec returns the field spec for a column name.
func (d TableDefinition) Spec(name string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Keys returns the identifier columns of the entity.
func (d TableDefinition) Keys() []string {
	var keys []string
	for _, spec := range d.FieldSpecs {
		if spec.Key {
			keys = append(keys, spec.Name)
		}
	}
	return keys
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int
