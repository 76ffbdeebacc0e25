// Package variant forces an explicit variant choice before a variant-bearing
// product can enter the cart.
package variant

import (
	"errors"
	"fmt"

	"shop-console/internal/domain"
)

var (
	ErrNothingPending     = errors.New("no product awaiting variant selection")
	ErrUnknownVariant     = errors.New("unknown variant")
	ErrVariantUnavailable = errors.New("variant out of stock")
)

type State int

const (
	Idle State = iota
	AwaitingSelection
)

func (s State) String() string {
	if s == AwaitingSelection {
		return "awaiting_selection"
	}
	return "idle"
}

// LineAdder is the part of the cart engine the resolver forwards to.
type LineAdder interface {
	AddLine(product domain.Product, variant *domain.ProductVariant, quantity int) error
}

// Option is one selectable (or visible but disabled) variant.
type Option struct {
	Variant    domain.ProductVariant `json:"variant"`
	Selectable bool                  `json:"selectable"`
}

// ColorGroup lists the variants sharing a color.
type ColorGroup struct {
	Color   string   `json:"color"`
	Options []Option `json:"options"`
}

type Resolver struct {
	cart     LineAdder
	notifier domain.Notifier
	pending  *domain.Product
	quantity int
}

func NewResolver(cart LineAdder, notifier domain.Notifier) *Resolver {
	return &Resolver{cart: cart, notifier: notifier}
}

// Add puts a product without variants straight into the cart. A product with
// variants is parked until Select or Cancel.
func (r *Resolver) Add(product domain.Product) error {
	return r.AddQuantity(product, 1)
}

// AddQuantity is Add for more than one unit; the quantity is kept with the
// pending product and used when its variant is selected.
func (r *Resolver) AddQuantity(product domain.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	if !product.HasVariants() {
		return r.cart.AddLine(product, nil, quantity)
	}
	p := product
	r.pending = &p
	r.quantity = quantity
	if r.notifier != nil {
		r.notifier.Notify(domain.Notification{
			Kind:    domain.NotifyVariantRequired,
			Message: fmt.Sprintf("Choose a variant of %s", product.Name),
		})
	}
	return nil
}

func (r *Resolver) State() State {
	if r.pending != nil {
		return AwaitingSelection
	}
	return Idle
}

// Pending returns the product awaiting a variant, if any.
func (r *Resolver) Pending() (domain.Product, bool) {
	if r.pending == nil {
		return domain.Product{}, false
	}
	return *r.pending, true
}

// PendingQuantity is the number of units Select will add, or 0 when Idle.
func (r *Resolver) PendingQuantity() int {
	if r.pending == nil {
		return 0
	}
	return r.quantity
}

// Options groups the pending product's variants by color in first-seen order.
// Out-of-stock variants are listed but not selectable.
func (r *Resolver) Options() []ColorGroup {
	if r.pending == nil {
		return nil
	}
	return GroupByColor(r.pending.Variants)
}

func GroupByColor(variants []domain.ProductVariant) []ColorGroup {
	var groups []ColorGroup
	pos := map[string]int{}
	for _, v := range variants {
		i, ok := pos[v.Color]
		if !ok {
			i = len(groups)
			pos[v.Color] = i
			groups = append(groups, ColorGroup{Color: v.Color})
		}
		groups[i].Options = append(groups[i].Options, Option{Variant: v, Selectable: v.Selectable()})
	}
	return groups
}

// Select adds the pending product with the chosen variant and returns to
// Idle. Unknown or unselectable variants keep the selection open. The cart's
// own stock check still applies and its error is returned.
func (r *Resolver) Select(variantID string) error {
	if r.pending == nil {
		return ErrNothingPending
	}
	v, ok := r.pending.Variant(variantID)
	if !ok {
		return ErrUnknownVariant
	}
	if !v.Selectable() {
		return ErrVariantUnavailable
	}
	product := *r.pending
	chosen := *v
	quantity := max(r.quantity, 1)
	r.pending, r.quantity = nil, 0
	return r.cart.AddLine(product, &chosen, quantity)
}

// Cancel drops the pending product without touching the cart.
func (r *Resolver) Cancel() {
	r.pending, r.quantity = nil, 0
}
