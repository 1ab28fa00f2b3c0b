package tables

import "github.com/JonMunkholm/salesdw/internal/core"

func init() {
	registerProducts()
}

func registerProducts() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:            Products,
			Label:          "Products",
			RawFile:        "products_data.csv",
			PreparedFile:   "products_data_prepared.csv",
			HeaderStyle:    core.HeaderSnake,
			WarehouseTable: "product",
			LoadOrder:      2,
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "productid", DBColumn: "product_id", Type: core.FieldInteger, Required: true, Key: true, Missing: core.MissingDrop},
			{Name: "productname", DBColumn: "product_name", Type: core.FieldText, Missing: core.MissingDefault, Default: "Unnamed Product",
				Case: core.CaseTitle},
			{Name: "category", DBColumn: "category", Type: core.FieldText, Missing: core.MissingDefault, Default: "Misc",
				Case: core.CaseLower},
			{Name: "unitprice", DBColumn: "unit_price", Type: core.FieldReal, Missing: core.MissingDefault, Default: "0",
				Round: 2, Outlier: core.Between(0, 10000), Rule: core.AtLeast(0)},
			{Name: "stockquantity", DBColumn: "stock_quantity", Type: core.FieldInteger, Missing: core.MissingDefault, Default: "0",
				Outlier: core.AtLeast(0)},
			{Name: "yearadded", DBColumn: "year_added", Type: core.FieldInteger},
			{Name: "supplier", DBColumn: "supplier", Type: core.FieldText, Missing: core.MissingDefault, Default: "Unknown",
				Case: core.CaseTitle},
		},
	})
}
