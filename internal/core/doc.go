// Package core provides the cleaning engine for the raw sales extracts.
//
// This package holds all table-level logic independent of the warehouse.
// It can be used by the command line tools, the loader, or tests without
// modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Table: an in-memory CSV table whose cells are pgtype.Text, so a null
//     is distinct from an empty string.
//   - Table Definitions: registered via the registry, each entity has field
//     specs describing keys, missing-value policy, ranges and formats.
//   - Pipeline: one generic engine running the cleaning steps in a fixed
//     order, driven entirely by a TableDefinition.
//
// # Table Registry
//
// Entities are registered at init time using [Register]:
//
//	core.Register(TableDefinition{
//	    Info: TableInfo{Key: "customers", Label: "Customers", HeaderStyle: HeaderTrim},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "CustomerID", Type: FieldInteger, Key: true, Required: true},
//	        {Name: "LoyaltyPoints", Type: FieldInteger, Missing: MissingDefault,
//	            Default: "0", Outlier: Between(0, 10000)},
//	    },
//	})
//
// # Cleaning Steps
//
// [Pipeline.Run] applies, in order:
//
//  1. [Deduplicate]: exact duplicate rows are dropped
//  2. [HandleMissing]: rows without a key are dropped, other nulls filled
//  3. [RemoveOutliers]: fixed bounds and IQR fences
//  4. [StandardizeFormats]: case, rounding and ISO dates
//  5. [Validate]: business rule ranges and key uniqueness
//
// Each step returns a new table and a [StepReport]; row-level problems are
// counted, never returned as errors.
//
// # Error Handling
//
// File and warehouse failures are returned as [ReadError], [SchemaError]
// or [LoadError], each carrying a code. Driver messages are mapped to codes
// using [MapError].
package core
