package domain

import "github.com/shopspring/decimal"

type Sale struct {
	ID        int64           `db:"id" json:"id"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Payment   decimal.Decimal `db:"payment" json:"payment"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt string          `db:"created_at" json:"created_at"`
}

// SaleItem carries the unit price at the time of sale, not the live
// catalog price, so later price changes never alter recorded sales.
type SaleItem struct {
	ID        int64           `db:"id" json:"id"`
	SaleID    int64           `db:"sale_id" json:"sale_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}
