package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
	"github.com/JonMunkholm/salesdw/internal/logging"
)

const (
	customersCSV = "CustomerID,Name,Region,JoinDate,LoyaltyPoints,State\n" +
		"1001,Alice,East,2021-01-02,500,OH\n" +
		"1002,,West,,0,CA\n"
	productsCSV = "productid,productname,category,unitprice,stockquantity,yearadded,supplier\n" +
		"10,Mouse,electronics,12.35,10,2020,Acme\n" +
		"11,Desk,furniture,99.5,2,,Ikea\n"
	salesCSV = "transactionid,saledate,customerid,productid,storeid,campaignid,saleamount,discountpercent,paymenttype\n" +
		"1,2024-01-05,1001,10,1,0,12.35,5,Card\n" +
		"2,,1002,11,2,,99.5,0,Cash\n"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open(DriverSQLite, filepath.Join(t.TempDir(), "dw.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func writePrepared(t *testing.T, customers, products, sales string) PreparedSet {
	t.Helper()
	dir := t.TempDir()
	set := PreparedSet{
		Customers: filepath.Join(dir, "customers_data_prepared.csv"),
		Products:  filepath.Join(dir, "products_data_prepared.csv"),
		Sales:     filepath.Join(dir, "sales_data_prepared.csv"),
	}
	require.NoError(t, os.WriteFile(set.Customers, []byte(customers), 0o644))
	require.NoError(t, os.WriteFile(set.Products, []byte(products), 0o644))
	require.NoError(t, os.WriteFile(set.Sales, []byte(sales), 0o644))
	return set
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func ids(t *testing.T, db *sqlx.DB, query string) []int64 {
	t.Helper()
	var out []int64
	require.NoError(t, db.Select(&out, query))
	return out
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name)

	d, err = DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestSchemaStatements_Order(t *testing.T) {
	for _, name := range []string{"sqlite", "postgres"} {
		stmts, err := schemaStatements(Dialect{Name: name})
		require.NoError(t, err)
		require.Len(t, stmts, len(Tables))
		for i, ts := range Tables {
			assert.Equal(t, ts.Name, stmts[i].table, "%s statement %d", name, i)
		}
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureSchema(context.Background(), db))

	for _, ts := range Tables {
		assert.Equal(t, 0, count(t, db, ts.Name))
	}
}

func TestEnsureSchema_UnknownDriver(t *testing.T) {
	db := openTestDB(t)
	other := sqlx.NewDb(db.DB, "mystery")

	err := EnsureSchema(context.Background(), other)
	var se *core.SchemaError
	require.True(t, errors.As(err, &se), "error = %v", err)
	assert.Equal(t, core.CodeSchemaDDL, se.Code)
}

func TestEnsureSchema_MalformedTable(t *testing.T) {
	db, err := sqlx.Open(DriverSQLite, filepath.Join(t.TempDir(), "dw.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE sale (transaction_id INTEGER PRIMARY KEY, sale_date DATE)")
	require.NoError(t, err)

	err = EnsureSchema(context.Background(), db)
	var se *core.SchemaError
	require.True(t, errors.As(err, &se), "error = %v", err)
	assert.Equal(t, core.CodeSchemaMismatch, se.Code)
	assert.Equal(t, "sale", se.Table)
	assert.Contains(t, se.Error(), "customer_id")
}

func TestMapping_Apply(t *testing.T) {
	m := Mapping{Table: "customer", Columns: []ColumnMapping{
		{Source: "CustomerID", Target: "customer_id"},
		{Source: "Name", Target: "name"},
		{Source: "State", Target: "state"},
	}}
	in := core.NewTable([]string{"Name", "CustomerID", "Extra"})
	in.AppendStrings("Alice", "1001", "x")
	in.AppendStrings("", "1002", "y")

	out := m.Apply(in)

	assert.Equal(t, []string{"customer_id", "name", "state"}, out.Columns)
	assert.Equal(t, [][]string{{"1001", "Alice", ""}, {"1002", "", ""}}, out.Strings())
	assert.Equal(t, []string{"Name", "CustomerID", "Extra"}, in.Columns, "input columns changed")
}

func TestMappingFromDefinition(t *testing.T) {
	want := map[string][]string{
		tables.Customers: Tables[0].Columns,
		tables.Products:  {"product_id", "product_name", "category", "unit_price", "stock_quantity", "year_added", "supplier"},
		tables.Sales:     Tables[2].Columns,
	}

	mappings := DefaultMappings()
	for key, cols := range want {
		m, ok := mappings[key]
		require.True(t, ok, "no mapping for %s", key)
		assert.ElementsMatch(t, cols, m.Targets(), key)
	}
	assert.Equal(t, "sale", mappings[tables.Sales].Table)
	assert.Equal(t, ColumnMapping{Source: "CustomerID", Target: "customer_id"}, mappings[tables.Customers].Columns[0])
}

func TestDecodeRecords(t *testing.T) {
	in := core.NewTable([]string{"product_id", "product_name", "unit_price", "year_added"})
	in.AppendStrings("10", "Mouse", "12.35", "")

	recs, err := decodeRecords[ProductRecord](in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(10), recs[0].ProductID)
	require.NotNil(t, recs[0].ProductName)
	assert.Equal(t, "Mouse", *recs[0].ProductName)
	require.NotNil(t, recs[0].UnitPrice)
	assert.InDelta(t, 12.35, *recs[0].UnitPrice, 1e-9)
	assert.Nil(t, recs[0].YearAdded)
	assert.Nil(t, recs[0].Category)

	bad := core.NewTable([]string{"product_id"})
	bad.AppendStrings("ten")
	_, err = decodeRecords[ProductRecord](bad)
	assert.Error(t, err)
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("customer", []string{"customer_id", "name"})
	assert.Equal(t, "INSERT INTO customer (customer_id, name) VALUES (:customer_id, :name)", got)
}

func TestLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	loader := NewLoader(db, LoaderOptions{Clock: fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))})

	res, err := loader.Load(ctx, writePrepared(t, customersCSV, productsCSV, salesCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Customers)
	assert.Equal(t, 2, res.Products)
	assert.Equal(t, 2, res.Sales)
	assert.Equal(t, time.Second, res.Duration())
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, 2, count(t, db, "customer"))
	assert.Equal(t, 2, count(t, db, "product"))
	assert.Equal(t, 2, count(t, db, "sale"))

	var name sql.NullString
	require.NoError(t, db.Get(&name, "SELECT name FROM customer WHERE customer_id = 1002"))
	assert.False(t, name.Valid, "empty prepared cell should load as NULL")

	var price float64
	require.NoError(t, db.Get(&price, "SELECT unit_price FROM product WHERE product_id = 10"))
	assert.InDelta(t, 12.35, price, 1e-9)

	var year sql.NullInt64
	require.NoError(t, db.Get(&year, "SELECT year_added FROM product WHERE product_id = 11"))
	assert.False(t, year.Valid)

	var cust int64
	require.NoError(t, db.Get(&cust, "SELECT customer_id FROM sale WHERE transaction_id = 2"))
	assert.Equal(t, int64(1002), cust)

	run, err := loader.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, 2, run.Sales)
	assert.True(t, run.FinishedAt.Equal(res.FinishedAt), "FinishedAt = %v, want %v", run.FinishedAt, res.FinishedAt)
}

func TestLoad_Overwrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	loader := NewLoader(db, LoaderOptions{Clock: fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))})

	_, err := loader.Load(ctx, writePrepared(t, customersCSV, productsCSV, salesCSV))
	require.NoError(t, err)

	one := "CustomerID,Name,Region,JoinDate,LoyaltyPoints,State\n2001,Zed,North,2022-01-01,1,TX\n"
	noSales := "transactionid,saledate,customerid,productid,storeid,campaignid,saleamount,discountpercent,paymenttype\n"
	second, err := loader.Load(ctx, writePrepared(t, one, productsCSV, noSales))
	require.NoError(t, err)

	assert.Equal(t, []int64{2001}, ids(t, db, "SELECT customer_id FROM customer"))
	assert.Equal(t, 0, count(t, db, "sale"))
	assert.Equal(t, 2, count(t, db, "etl_load_run"))

	run, err := loader.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, run.RunID)
}

func TestLoad_AtomicOnFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	loader := NewLoader(db, LoaderOptions{Clock: fixedClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))})

	first, err := loader.Load(ctx, writePrepared(t, customersCSV, productsCSV, salesCSV))
	require.NoError(t, err)

	// Customers insert fine, then the product batch hits a duplicate key.
	newCustomers := "CustomerID,Name,Region,JoinDate,LoyaltyPoints,State\n3001,New,East,,5,OH\n"
	dupProducts := "productid,productname,category,unitprice,stockquantity,yearadded,supplier\n" +
		"20,A,x,1,1,2020,S\n" +
		"20,B,y,2,2,2021,T\n"
	_, err = loader.Load(ctx, writePrepared(t, newCustomers, dupProducts, salesCSV))

	var le *core.LoadError
	require.True(t, errors.As(err, &le), "error = %v", err)
	assert.Equal(t, core.CodeLoadInsert, le.Code)
	assert.Equal(t, "product", le.Table)
	assert.Equal(t, "DB001", core.MapError(err).Code)

	assert.Equal(t, []int64{1001, 1002}, ids(t, db, "SELECT customer_id FROM customer ORDER BY customer_id"))
	assert.Equal(t, []int64{10, 11}, ids(t, db, "SELECT product_id FROM product ORDER BY product_id"))
	assert.Equal(t, []int64{1, 2}, ids(t, db, "SELECT transaction_id FROM sale ORDER BY transaction_id"))

	run, err := loader.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, run.RunID)
}

func TestLoad_DecodeFailure(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db, LoaderOptions{})

	badSales := "transactionid,saledate,customerid,productid,storeid,campaignid,saleamount,discountpercent,paymenttype\n" +
		"x1,2024-01-05,1001,10,1,0,12.35,5,Card\n"
	_, err := loader.Load(context.Background(), writePrepared(t, customersCSV, productsCSV, badSales))

	assert.Equal(t, core.CodeLoadDecode, core.ErrorCode(err))
	assert.Equal(t, 0, count(t, db, "customer"), "nothing is written when decoding fails")
}

func TestLoad_MissingFile(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db, LoaderOptions{})

	set := writePrepared(t, customersCSV, productsCSV, salesCSV)
	set.Sales = filepath.Join(t.TempDir(), "absent.csv")
	_, err := loader.Load(context.Background(), set)

	var re *core.ReadError
	require.True(t, errors.As(err, &re), "error = %v", err)
	assert.Equal(t, core.CodeReadOpen, re.Code)
}

func TestLoad_Batches(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db, LoaderOptions{BatchSize: 2})

	customers := "CustomerID,Name,Region,JoinDate,LoyaltyPoints,State\n" +
		"1,a,r,,0,s\n2,b,r,,0,s\n3,c,r,,0,s\n4,d,r,,0,s\n5,e,r,,0,s\n"
	res, err := loader.Load(context.Background(), writePrepared(t, customers, productsCSV, salesCSV))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Customers)
	assert.Equal(t, 5, count(t, db, "customer"))
}

func TestLoad_RunIDFromContext(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db, LoaderOptions{})
	ctx := logging.ContextWithRunID(context.Background())

	res, err := loader.Load(ctx, writePrepared(t, customersCSV, productsCSV, salesCSV))
	require.NoError(t, err)
	assert.Equal(t, logging.RunID(ctx), res.RunID)
}

func TestLastRun_Empty(t *testing.T) {
	db := openTestDB(t)
	run, err := NewLoader(db, LoaderOptions{}).LastRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
}
