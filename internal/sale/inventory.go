package sale

import (
	"context"

	"github.com/jmoiron/sqlx"

	"retailpos/m/internal/catalog"
)

// InventoryAdjuster applies stock deltas to product rows inside the
// caller's transaction.
type InventoryAdjuster struct{}

// DecrementStock subtracts qty from the product's on-hand quantity as a
// single conditional UPDATE. The affected-row count is the success signal:
// zero rows means the product is missing or the stock is short, and the
// query below tells the two apart.
func (InventoryAdjuster) DecrementStock(ctx context.Context, tx *sqlx.Tx, productID, qty int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET quantity = quantity - ? WHERE item_id = ? AND quantity >= ?`,
		qty, productID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE item_id = ?)`, productID); err != nil {
			return err
		}
		if !exists {
			return catalog.ErrNotFound
		}
		return &InsufficientStockError{ProductID: productID}
	}
	return nil
}
