// Package cart implements the in-memory cart engine: identity-unique lines
// guarded by stock ceilings.
package cart

import (
	"errors"
	"fmt"

	"shop-console/internal/adjustment"
	"shop-console/internal/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrVariantMismatch = errors.New("variant does not belong to product")
)

// Engine owns the lines of one cart. It is not safe for concurrent use; the
// owning session serialises calls. Every operation either applies fully or
// leaves the cart untouched.
type Engine struct {
	store    *adjustment.Store
	notifier domain.Notifier
	lines    []domain.CartLine
}

type Option func(*Engine)

// WithNotifier routes user-facing signals (stock limit, variant required).
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func New(store *adjustment.Store, opts ...Option) *Engine {
	if store == nil {
		store = adjustment.NewStore(domain.KeyByProduct)
	}
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adjustments returns the store seeded by this engine.
func (e *Engine) Adjustments() *adjustment.Store {
	return e.store
}

// AddLine adds quantity units of product (resolved to variant when the
// product has variants). An existing line with the same identity is
// incremented instead of duplicated.
func (e *Engine) AddLine(product domain.Product, variant *domain.ProductVariant, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if product.HasVariants() && variant == nil {
		e.notify(domain.NotifyVariantRequired, fmt.Sprintf("Select a variant of %s first", displayName(product)))
		return domain.ErrVariantRequired
	}
	if variant != nil && variant.ProductID != "" && variant.ProductID != product.ID {
		return ErrVariantMismatch
	}

	variantID := ""
	available := product.Stock
	if variant != nil {
		variantID = variant.ID
		available = variant.Quantity
	}
	lineID := domain.LineID(product.ID, variantID)

	if idx := e.index(lineID); idx >= 0 {
		line := &e.lines[idx]
		next := line.Quantity + quantity
		if next > available {
			return e.stockLimit(lineID, next, available)
		}
		line.Quantity = next
		line.AvailableStock = available
		return nil
	}

	if quantity > available {
		return e.stockLimit(lineID, quantity, available)
	}
	line := domain.CartLine{
		LineID:         lineID,
		ProductID:      product.ID,
		VariantID:      variantID,
		Name:           product.Name,
		Quantity:       quantity,
		UnitPrice:      product.Price,
		AvailableStock: available,
	}
	e.lines = append(e.lines, line)
	e.store.SeedFromCatalog(e.store.KeyFor(line), product)
	return nil
}

// ChangeQuantity applies delta to a line. A result above the line's stock is
// rejected; a result of zero or less removes the line.
func (e *Engine) ChangeQuantity(lineID string, delta int) error {
	idx := e.index(lineID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	line := &e.lines[idx]
	next := line.Quantity + delta
	if next > line.AvailableStock {
		return e.stockLimit(lineID, next, line.AvailableStock)
	}
	if next <= 0 {
		e.removeAt(idx)
		return nil
	}
	line.Quantity = next
	return nil
}

// SetQuantity sets an absolute quantity under the same rules as ChangeQuantity.
func (e *Engine) SetQuantity(lineID string, quantity int) error {
	idx := e.index(lineID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	return e.ChangeQuantity(lineID, quantity-e.lines[idx].Quantity)
}

// RemoveLine drops a line; removing an unknown line is a no-op.
func (e *Engine) RemoveLine(lineID string) {
	if idx := e.index(lineID); idx >= 0 {
		e.removeAt(idx)
	}
}

// Restore replaces the cart with previously reconciled lines. Lines sharing an
// identity are merged. No catalog seeding happens.
func (e *Engine) Restore(lines []domain.CartLine) error {
	restored := make([]domain.CartLine, 0, len(lines))
	pos := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return fmt.Errorf("restore line %s: %w", l.LineID, ErrInvalidQuantity)
		}
		if l.LineID == "" {
			l.LineID = domain.LineID(l.ProductID, l.VariantID)
		}
		if i, ok := pos[l.LineID]; ok {
			restored[i].Quantity += l.Quantity
			if restored[i].AvailableStock < l.AvailableStock {
				restored[i].AvailableStock = l.AvailableStock
			}
			continue
		}
		pos[l.LineID] = len(restored)
		restored = append(restored, l)
	}
	for _, l := range restored {
		if l.Quantity > l.AvailableStock {
			return &domain.StockLimitError{LineID: l.LineID, Requested: l.Quantity, Available: l.AvailableStock}
		}
	}
	e.lines = restored
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (e *Engine) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) Line(lineID string) (domain.CartLine, bool) {
	if idx := e.index(lineID); idx >= 0 {
		return e.lines[idx], true
	}
	return domain.CartLine{}, false
}

func (e *Engine) Len() int {
	return len(e.lines)
}

func (e *Engine) TotalQuantity() int {
	total := 0
	for _, l := range e.lines {
		total += l.Quantity
	}
	return total
}

// Clear empties the cart. Adjustments are left to the owner.
func (e *Engine) Clear() {
	e.lines = nil
}

func (e *Engine) index(lineID string) int {
	for i := range e.lines {
		if e.lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeAt(idx int) {
	e.lines = append(e.lines[:idx], e.lines[idx+1:]...)
}

func (e *Engine) stockLimit(lineID string, requested, available int) error {
	e.notify(domain.NotifyStockLimit, fmt.Sprintf("Only %d in stock", available))
	return &domain.StockLimitError{LineID: lineID, Requested: requested, Available: available}
}

func (e *Engine) notify(kind domain.NotificationKind, msg string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(domain.Notification{Kind: kind, Message: msg})
}

func displayName(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
