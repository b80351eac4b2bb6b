package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"retailpos/m/domain"
	"retailpos/m/internal/catalog"
)

// Line is one cart entry handed to CommitSale. Price is the unit price at
// the time of sale.
type Line struct {
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
}

// Coordinator turns a cart into one durable sale: header, line items and
// stock decrements commit together or not at all.
type Coordinator struct {
	db     *sqlx.DB
	repo   Repository
	stock  InventoryAdjuster
	logger zerolog.Logger
}

func NewCoordinator(db *sqlx.DB, logger zerolog.Logger) *Coordinator {
	return &Coordinator{db: db, logger: logger}
}

// Total sums quantity times unit price over the lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Price.Mul(decimal.NewFromInt(ln.Quantity)))
	}
	return total
}

// CommitSale records the sale and returns the generated sale id.
//
// claimedTotal, when non-nil, is the total the register displayed to the
// operator; it must equal the total computed from the lines. Underpayment
// is accepted and stored as a negative balance — rejecting it is a
// register-side decision.
//
// On any error the transaction is rolled back in full: no sale row, no
// items, no stock change.
func (c *Coordinator) CommitSale(ctx context.Context, lines []Line, claimedTotal *decimal.Decimal, payment decimal.Decimal) (int64, error) {
	if len(lines) == 0 {
		return 0, &ValidationError{Reason: "empty sale"}
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return 0, &ValidationError{Reason: fmt.Sprintf("non-positive quantity for product %d", ln.ProductID)}
		}
		if ln.Price.IsNegative() {
			return 0, &ValidationError{Reason: fmt.Sprintf("negative price for product %d", ln.ProductID)}
		}
	}
	if payment.IsNegative() {
		return 0, &ValidationError{Reason: "negative payment"}
	}

	total := Total(lines)
	if claimedTotal != nil && !claimedTotal.Equal(total) {
		return 0, &ValidationError{Reason: fmt.Sprintf("total mismatch: lines sum to %s, caller sent %s", total, claimedTotal)}
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &PersistenceError{Err: err}
	}
	defer tx.Rollback()

	// Re-validate every line against the stock visible inside this
	// transaction. The conditional decrement below is the authoritative
	// guard; this read fails fast with the offending product before any
	// write happens.
	for _, ln := range lines {
		p, err := catalog.ProductByID(ctx, tx, ln.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return 0, err
			}
			return 0, &PersistenceError{Err: err}
		}
		if ln.Quantity > p.Quantity {
			return 0, &InsufficientStockError{ProductID: ln.ProductID}
		}
	}

	balance := payment.Sub(total)
	saleID, err := c.repo.InsertSaleHeader(ctx, tx, total, payment, balance)
	if err != nil {
		return 0, &PersistenceError{Err: err}
	}

	items := make([]domain.SaleItem, len(lines))
	for i, ln := range lines {
		items[i] = domain.SaleItem{
			SaleID:    saleID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Price:     ln.Price,
		}
	}
	if err := c.repo.InsertSaleItems(ctx, tx, saleID, items); err != nil {
		return 0, &PersistenceError{Err: err}
	}

	for _, ln := range lines {
		if err := c.stock.DecrementStock(ctx, tx, ln.ProductID, ln.Quantity); err != nil {
			var short *InsufficientStockError
			if errors.As(err, &short) || errors.Is(err, catalog.ErrNotFound) {
				return 0, err
			}
			return 0, &PersistenceError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &PersistenceError{Err: err}
	}

	c.logger.Info().
		Int64("sale_id", saleID).
		Str("total", total.String()).
		Int("lines", len(items)).
		Msg("sale committed")
	return saleID, nil
}

// GetSale returns the sale header and its line items for receipt display.
func (c *Coordinator) GetSale(ctx context.Context, saleID int64) (*domain.Sale, []domain.SaleItem, error) {
	var s domain.Sale
	err := c.db.GetContext(ctx, &s, `SELECT id, total, payment, balance, created_at FROM sales WHERE id = ?`, saleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSaleNotFound
		}
		return nil, nil, &PersistenceError{Err: err}
	}
	var items []domain.SaleItem
	err = c.db.SelectContext(ctx, &items, `SELECT id, sale_id, product_id, quantity, price FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID)
	if err != nil {
		return nil, nil, &PersistenceError{Err: err}
	}
	return &s, items, nil
}
