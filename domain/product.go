package domain

import "github.com/shopspring/decimal"

type Product struct {
	ItemID   int64           `db:"item_id" json:"item_id"`
	Name     string          `db:"name" json:"name"`
	Category string          `db:"category" json:"category"`
	Quantity int64           `db:"quantity" json:"quantity"`
	Price    decimal.Decimal `db:"price" json:"price"`
}
