// Package catalog provides read and maintenance access to the product table.
// The sale subsystem only depends on Reader; the rest is back-office CRUD.
package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"retailpos/m/domain"
)

var (
	// ErrNotFound is returned when no product matches the given item id.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateID is returned when an item id is already taken.
	ErrDuplicateID = errors.New("item id already exists")
	// ErrDuplicateName is returned when a product name is already taken.
	ErrDuplicateName = errors.New("product name already exists")
)

// Reader is the read-only surface the sale subsystem validates against.
type Reader interface {
	ProductByID(ctx context.Context, itemID int64) (*domain.Product, error)
}

// ProductByID looks up one product. q may be the pool or an open
// transaction; sale commits must pass their transaction so the stock they
// see is the stock they decrement.
func ProductByID(ctx context.Context, q sqlx.QueryerContext, itemID int64) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, `SELECT item_id, name, category, quantity, price FROM products WHERE item_id = ?`, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Repo is the product catalog backed by the database.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ProductByID(ctx context.Context, itemID int64) (*domain.Product, error) {
	return ProductByID(ctx, r.db, itemID)
}

func (r *Repo) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.SelectContext(ctx, &products, `SELECT item_id, name, category, quantity, price FROM products ORDER BY item_id`)
	return products, err
}

// Search matches the keyword against name, item id and category.
func (r *Repo) Search(ctx context.Context, keyword string) ([]domain.Product, error) {
	like := "%" + keyword + "%"
	var products []domain.Product
	err := r.db.SelectContext(ctx, &products,
		`SELECT item_id, name, category, quantity, price FROM products
         WHERE name LIKE ? OR item_id LIKE ? OR category LIKE ? ORDER BY item_id`,
		like, like, like)
	return products, err
}

// Add inserts a new product after checking id and name uniqueness.
func (r *Repo) Add(ctx context.Context, p *domain.Product) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE item_id = ?)`, p.ItemID); err != nil {
		return err
	}
	if exists {
		return ErrDuplicateID
	}
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE name = ?)`, p.Name); err != nil {
		return err
	}
	if exists {
		return ErrDuplicateName
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (item_id, name, category, quantity, price) VALUES (?, ?, ?, ?, ?)`,
		p.ItemID, p.Name, p.Category, p.Quantity, p.Price)
	return err
}

// Update rewrites the product identified by oldItemID. The item id itself
// may change as long as the new id is free.
func (r *Repo) Update(ctx context.Context, p *domain.Product, oldItemID int64) error {
	if p.ItemID != oldItemID {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE item_id = ? AND item_id != ?)`, p.ItemID, oldItemID); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateID
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET item_id = ?, name = ?, category = ?, quantity = ?, price = ? WHERE item_id = ?`,
		p.ItemID, p.Name, p.Category, p.Quantity, p.Price, oldItemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, itemID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE item_id = ?`, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
