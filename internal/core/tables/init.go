// Package tables registers the cleaning policy of every entity with the
// core registry. Import this package to ensure all tables are registered.
package tables

// Registry keys of the entities.
const (
	Customers = "customers"
	Products  = "products"
	Sales     = "sales"
)

// Each table file uses init() to register its definition.
