package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrStockLimitExceeded indicates a quantity change would exceed available stock.
	ErrStockLimitExceeded = errors.New("stock limit exceeded")
	// ErrVariantRequired indicates a variant-bearing product was added without a variant.
	ErrVariantRequired = errors.New("variant required")
	// ErrReconciliationMismatch indicates recomputed totals drifted from a stored order.
	ErrReconciliationMismatch = errors.New("reconciliation mismatch")
)

// StockLimitError carries the detail of a rejected quantity change.
type StockLimitError struct {
	LineID    string
	Requested int
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("stock limit exceeded for %s: requested %d, available %d", e.LineID, e.Requested, e.Available)
}

func (e *StockLimitError) Is(target error) bool {
	return target == ErrStockLimitExceeded
}

// ReconciliationError reports which stored total could not be reproduced.
type ReconciliationError struct {
	OrderID  string
	Field    string
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation mismatch for order %s: %s stored=%s computed=%s",
		e.OrderID, e.Field, e.Stored.StringFixed(2), e.Computed.StringFixed(2))
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliationMismatch
}
