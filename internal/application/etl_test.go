package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdw/internal/config"
	"github.com/JonMunkholm/salesdw/internal/core"
	"github.com/JonMunkholm/salesdw/internal/core/tables"
	"github.com/JonMunkholm/salesdw/internal/logging"
)

var rawFiles = map[string]string{
	"customers_data.csv": "CustomerID,Name,Region,JoinDate,LoyaltyPoints,State\n" +
		"1001,Alice,East,2021-01-02,500,OH\n" +
		"1001,Alice,East,2021-01-02,500,OH\n" +
		",Bob,West,2021-03-04,100,CA\n" +
		"1002,,West,2022-05-06,,CA\n",
	"products_data.csv": "ProductID,ProductName,Category,UnitPrice,StockQuantity,YearAdded,Supplier\n" +
		"10,wireless mouse,ELECTRONICS,12.3456,10,2020,acme\n" +
		"11,desk,Furniture,-5,3,2019,ikea\n" +
		"12,lamp,Home,45,1,,bright\n",
	"sales_data.csv": "TransactionID,SaleDate,CustomerID,ProductID,StoreID,CampaignID,SaleAmount,DiscountPercent,PaymentType\n" +
		"1,2024-01-05,1001,10,1,0,10,5,Card\n" +
		"2,13/31/2024,1002,12,1,0,11,10,Cash\n" +
		"3,01/15/2024,1001,12,2,1,,0,Card\n" +
		"4,2024-01-20,,10,2,1,13,0,Card\n",
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Data: config.DataConfig{
			Dir:         dir,
			RawDir:      filepath.Join(dir, "raw"),
			PreparedDir: filepath.Join(dir, "prepared"),
		},
		Warehouse: config.WarehouseConfig{
			Driver:    "sqlite3",
			DSN:       filepath.Join(dir, "dw", config.WarehouseFile),
			BatchSize: 2,
			Timeout:   time.Minute,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}

	require.NoError(t, os.MkdirAll(cfg.Data.RawDir, 0o755))
	for name, content := range rawFiles {
		require.NoError(t, os.WriteFile(cfg.Data.RawPath(name), []byte(content), 0o644))
	}
	return cfg
}

func TestPrepare(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	rep, err := Prepare(ctx, cfg, tables.Customers)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Input)
	assert.Equal(t, 2, rep.Output)
	assert.Equal(t, 2, rep.Removed())

	def, _ := core.Get(tables.Customers)
	out, err := core.ReadEntity(cfg.Data.PreparedPath("customers_data_prepared.csv"), def)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1001", "Alice", "East", "2021-01-02", "500", "OH"},
		{"1002", "Unknown", "West", "2022-05-06", "0", "CA"},
	}, out.Strings())
}

func TestPrepare_UnknownTable(t *testing.T) {
	_, err := Prepare(context.Background(), testConfig(t), "suppliers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suppliers")
}

func TestPrepare_MissingRaw(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(cfg.Data.RawPath("sales_data.csv")))

	_, err := Prepare(context.Background(), cfg, tables.Sales)
	assert.Equal(t, core.CodeReadOpen, core.ErrorCode(err))
}

func TestPrepareAll_Order(t *testing.T) {
	cfg := testConfig(t)

	reports, err := PrepareAll(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, tables.Customers, reports[0].TableKey)
	assert.Equal(t, tables.Products, reports[1].TableKey)
	assert.Equal(t, tables.Sales, reports[2].TableKey)

	for _, name := range []string{"customers_data_prepared.csv", "products_data_prepared.csv", "sales_data_prepared.csv"} {
		assert.FileExists(t, cfg.Data.PreparedPath(name))
	}
}

func TestPrepareAll_Subset(t *testing.T) {
	cfg := testConfig(t)

	reports, err := PrepareAll(context.Background(), cfg, tables.Products)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Output, "negative price dropped")
	assert.NoFileExists(t, cfg.Data.PreparedPath("customers_data_prepared.csv"))
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	ctx := logging.ContextWithRunID(context.Background())

	res, err := Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Customers)
	assert.Equal(t, 2, res.Products)
	assert.Equal(t, 3, res.Sales)
	assert.Equal(t, logging.RunID(ctx), res.RunID)

	db, err := sqlx.Open("sqlite3", cfg.Warehouse.DSN)
	require.NoError(t, err)
	defer db.Close()

	var names []string
	require.NoError(t, db.Select(&names, "SELECT product_name FROM product ORDER BY product_id"))
	assert.Equal(t, []string{"Wireless Mouse", "Lamp"}, names)

	var price float64
	require.NoError(t, db.Get(&price, "SELECT unit_price FROM product WHERE product_id = 10"))
	assert.InDelta(t, 12.35, price, 1e-9)

	var nullDates int
	require.NoError(t, db.Get(&nullDates, "SELECT COUNT(*) FROM sale WHERE sale_date IS NULL"))
	assert.Equal(t, 1, nullDates, "13/31/2024 loads as NULL")

	run, err := LastRun(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, res.RunID, run.RunID)
}

func TestLoad_WithoutPreparedFiles(t *testing.T) {
	cfg := testConfig(t)

	_, err := Load(context.Background(), cfg)
	assert.Equal(t, core.CodeReadOpen, core.ErrorCode(err))
}

func TestOpenWarehouse_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Warehouse.Driver = "mysql"

	_, err := OpenWarehouse(context.Background(), cfg)
	assert.Equal(t, core.CodeSchemaDDL, core.ErrorCode(err))
}

func TestPreparedFiles(t *testing.T) {
	cfg := testConfig(t)
	set := PreparedFiles(cfg)

	assert.Equal(t, filepath.Join(cfg.Data.PreparedDir, "customers_data_prepared.csv"), set.Customers)
	assert.Equal(t, filepath.Join(cfg.Data.PreparedDir, "products_data_prepared.csv"), set.Products)
	assert.Equal(t, filepath.Join(cfg.Data.PreparedDir, "sales_data_prepared.csv"), set.Sales)
}

func TestLogFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	ctx := context.Background()

	LogFailure(ctx, "load", &core.LoadError{Code: core.CodeLoadInsert, Table: "sale", Err: errors.New("database is locked")})
	out := buf.String()
	assert.Contains(t, out, "code=LOAD002")
	assert.Contains(t, out, "Code: DB005")
	assert.Contains(t, out, "hint=")

	buf.Reset()
	LogFailure(ctx, "load", errors.New("boom"))
	out = buf.String()
	assert.Contains(t, out, "code=ERR000")
	assert.NotContains(t, out, "hint=")
}
