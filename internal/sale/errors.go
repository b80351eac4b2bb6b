package sale

import (
	"errors"
	"fmt"
)

// ErrSaleNotFound is returned when no sale matches the given id.
var ErrSaleNotFound = errors.New("sale not found")

// ValidationError reports malformed caller input. It is always raised
// before any persistence work, so no state has changed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid sale: " + e.Reason
}

// InsufficientStockError reports that a line asked for more units than the
// product has on hand at commit time. Nothing was committed.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// PersistenceError wraps a storage or transport failure. The transaction
// was rolled back, so the whole call can be retried as-is.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "sale not committed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
