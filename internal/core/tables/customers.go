package tables

import "github.com/JonMunkholm/salesdw/internal/core"

func init() {
	registerCustomers()
}

// Customer headers keep their casing after trimming.
func registerCustomers() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:            Customers,
			Label:          "Customers",
			RawFile:        "customers_data.csv",
			PreparedFile:   "customers_data_prepared.csv",
			HeaderStyle:    core.HeaderTrim,
			WarehouseTable: "customer",
			LoadOrder:      1,
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "CustomerID", DBColumn: "customer_id", Type: core.FieldInteger, Required: true, Key: true, Missing: core.MissingDrop},
			{Name: "Name", DBColumn: "name", Type: core.FieldText, Missing: core.MissingDefault, Default: "Unknown"},
			{Name: "Region", DBColumn: "region", Type: core.FieldText, Missing: core.MissingDefault, Default: "Unknown"},
			{Name: "JoinDate", DBColumn: "join_date", Type: core.FieldText},
			{Name: "LoyaltyPoints", DBColumn: "loyalty_points", Type: core.FieldInteger, Missing: core.MissingDefault, Default: "0",
				Outlier: core.Between(0, 10000)},
			{Name: "State", DBColumn: "state", Type: core.FieldText, Missing: core.MissingDefault, Default: "Unknown"},
		},
	})
}
