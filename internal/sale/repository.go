package sale

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"retailpos/m/domain"
)

// Repository persists sale headers and line items. Every method executes
// against the transaction supplied by the caller and never opens its own,
// so the coordinator controls the commit/rollback boundary.
type Repository struct{}

// InsertSaleHeader writes the sale summary row and returns the generated id.
func (Repository) InsertSaleHeader(ctx context.Context, tx *sqlx.Tx, total, payment, balance decimal.Decimal) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sales (total, payment, balance) VALUES (?, ?, ?)`,
		total, payment, balance)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertSaleItems writes all line items for saleID in the order given.
func (Repository) InsertSaleItems(ctx context.Context, tx *sqlx.Tx, saleID int64, items []domain.SaleItem) error {
	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, saleID, item.ProductID, item.Quantity, item.Price); err != nil {
			return err
		}
	}
	return nil
}
