package tables

import "github.com/JonMunkholm/salesdw/internal/core"

func init() {
	registerSales()
}

// Sale amount is filtered twice: once by the IQR fence and once by the
// non-negative rule. Both filters apply.
func registerSales() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:            Sales,
			Label:          "Sales",
			RawFile:        "sales_data.csv",
			PreparedFile:   "sales_data_prepared.csv",
			HeaderStyle:    core.HeaderSnake,
			WarehouseTable: "sale",
			LoadOrder:      3,
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "transactionid", DBColumn: "transaction_id", Type: core.FieldInteger, Required: true, Key: true, Missing: core.MissingDrop},
			{Name: "saledate", DBColumn: "sale_date", Type: core.FieldDate},
			{Name: "customerid", DBColumn: "customer_id", Type: core.FieldInteger, Required: true, Missing: core.MissingDrop},
			{Name: "productid", DBColumn: "product_id", Type: core.FieldInteger},
			{Name: "storeid", DBColumn: "store_id", Type: core.FieldInteger},
			{Name: "campaignid", DBColumn: "campaign_id", Type: core.FieldInteger},
			{Name: "saleamount", DBColumn: "sale_amount", Type: core.FieldReal, Missing: core.MissingMedian,
				IQR: true, Rule: core.AtLeast(0)},
			{Name: "discountpercent", DBColumn: "discount_percent", Type: core.FieldReal, Rule: core.Between(0, 100)},
			{Name: "paymenttype", DBColumn: "payment_type", Type: core.FieldText},
		},
	})
}
