package sale

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// These tests inject a failure at each write step and verify that the
// coordinator rolls the transaction back and surfaces a PersistenceError,
// so no partial sale can ever be observed.

var errBoom = errors.New("boom")

const (
	productQuery   = `SELECT item_id, name, category, quantity, price FROM products WHERE item_id = ?`
	headerInsert   = `INSERT INTO sales (total, payment, balance) VALUES (?, ?, ?)`
	itemInsert     = `INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`
	stockDecrement = `UPDATE products SET quantity = quantity - ? WHERE item_id = ? AND quantity >= ?`
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func productRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"item_id", "name", "category", "quantity", "price"}).
		AddRow(int64(7), "Cola", "drinks", int64(5), 10.0)
}

func oneLine(t *testing.T) []Line {
	return []Line{{ProductID: 7, Quantity: 3, Price: dec(t, "10.00")}}
}

func requirePersistenceError(t *testing.T, err error) {
	t.Helper()
	var persistence *PersistenceError
	require.ErrorAs(t, err, &persistence)
}

func TestCommitSale_RollsBackWhenHeaderInsertFails(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewCoordinator(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productQuery)).WithArgs(int64(7)).WillReturnRows(productRow())
	mock.ExpectExec(regexp.QuoteMeta(headerInsert)).WillReturnError(errBoom)
	mock.ExpectRollback()

	_, err := c.CommitSale(context.Background(), oneLine(t), nil, dec(t, "30.00"))
	requirePersistenceError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSale_RollsBackWhenItemInsertFails(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewCoordinator(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productQuery)).WithArgs(int64(7)).WillReturnRows(productRow())
	mock.ExpectExec(regexp.QuoteMeta(headerInsert)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(itemInsert)).
		ExpectExec().WillReturnError(errBoom)
	mock.ExpectRollback()

	_, err := c.CommitSale(context.Background(), oneLine(t), nil, dec(t, "30.00"))
	requirePersistenceError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSale_RollsBackWhenDecrementFails(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewCoordinator(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productQuery)).WithArgs(int64(7)).WillReturnRows(productRow())
	mock.ExpectExec(regexp.QuoteMeta(headerInsert)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(itemInsert)).
		ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(stockDecrement)).
		WithArgs(int64(3), int64(7), int64(3)).
		WillReturnError(errBoom)
	mock.ExpectRollback()

	_, err := c.CommitSale(context.Background(), oneLine(t), nil, dec(t, "30.00"))
	requirePersistenceError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSale_RollsBackWhenCommitFails(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewCoordinator(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productQuery)).WithArgs(int64(7)).WillReturnRows(productRow())
	mock.ExpectExec(regexp.QuoteMeta(headerInsert)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(itemInsert)).
		ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(stockDecrement)).
		WithArgs(int64(3), int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errBoom)

	_, err := c.CommitSale(context.Background(), oneLine(t), nil, dec(t, "30.00"))
	requirePersistenceError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent sale can spend the stock between the in-transaction read and
// the decrement; the zero-row decrement must surface as an oversell, not a
// success.
func TestCommitSale_DecrementRace(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewCoordinator(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(productQuery)).WithArgs(int64(7)).WillReturnRows(productRow())
	mock.ExpectExec(regexp.QuoteMeta(headerInsert)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(regexp.QuoteMeta(itemInsert)).
		ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(stockDecrement)).
		WithArgs(int64(3), int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM products WHERE item_id = ?)`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := c.CommitSale(context.Background(), oneLine(t), nil, dec(t, "30.00"))
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Equal(t, int64(7), short.ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}
