package warehouse

import (
	"fmt"
	"io"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/JonMunkholm/salesdw/internal/core"
)

// CustomerRecord is one row of the customer table.
type CustomerRecord struct {
	CustomerID    int64   `csv:"customer_id" db:"customer_id"`
	Name          *string `csv:"name" db:"name"`
	Region        *string `csv:"region" db:"region"`
	JoinDate      *string `csv:"join_date" db:"join_date"`
	LoyaltyPoints *int64  `csv:"loyalty_points" db:"loyalty_points"`
	State         *string `csv:"state" db:"state"`
}

// ProductRecord is one row of the product table.
type ProductRecord struct {
	ProductID     int64    `csv:"product_id" db:"product_id"`
	ProductName   *string  `csv:"product_name" db:"product_name"`
	Category      *string  `csv:"category" db:"category"`
	UnitPrice     *float64 `csv:"unit_price" db:"unit_price"`
	StockQuantity *int64   `csv:"stock_quantity" db:"stock_quantity"`
	YearAdded     *int64   `csv:"year_added" db:"year_added"`
	Supplier      *string  `csv:"supplier" db:"supplier"`
}

// SaleRecord is one row of the sale table.
type SaleRecord struct {
	TransactionID   int64    `csv:"transaction_id" db:"transaction_id"`
	SaleDate        *string  `csv:"sale_date" db:"sale_date"`
	CustomerID      *int64   `csv:"customer_id" db:"customer_id"`
	ProductID       *int64   `csv:"product_id" db:"product_id"`
	StoreID         *int64   `csv:"store_id" db:"store_id"`
	CampaignID      *int64   `csv:"campaign_id" db:"campaign_id"`
	SaleAmount      *float64 `csv:"sale_amount" db:"sale_amount"`
	DiscountPercent *float64 `csv:"discount_percent" db:"discount_percent"`
	PaymentType     *string  `csv:"payment_type" db:"payment_type"`
}

// LoadRun is one row of the etl_load_run history table.
type LoadRun struct {
	RunID      string    `db:"run_id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Customers  int       `db:"customers"`
	Products   int       `db:"products"`
	Sales      int       `db:"sales"`
}

// tableReader feeds the rows of a core.Table to csvutil as a csvutil.Reader.
// Null cells are returned as empty fields, which csvutil decodes to nil
// pointers.
type tableReader struct {
	rows [][]string
	pos  int
}

func (r *tableReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	rec := r.rows[r.pos]
	r.pos++
	return rec, nil
}

// decodeRecords decodes every row of t into a T, using t's columns as the
// header.
func decodeRecords[T any](t *core.Table) ([]T, error) {
	dec, err := csvutil.NewDecoder(&tableReader{rows: t.Strings()}, t.Columns...)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	out := make([]T, 0, t.Len())
	for {
		var rec T
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
