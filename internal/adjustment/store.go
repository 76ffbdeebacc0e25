// Package adjustment holds the per-cart and per-item overrides applied on top
// of catalog prices.
package adjustment

import (
	"errors"

	"shop-console/internal/domain"

	"github.com/shopspring/decimal"
)

var ErrInvalidCharge = errors.New("invalid charge")

var hundred = decimal.NewFromInt(100)

// Store is a small key-value store over the adjustment maps. Keys are not
// validated against cart contents: a value set for an absent line stays inert.
type Store struct {
	keying     domain.AdjustmentKeying
	tax        domain.Charge
	discount   domain.Charge
	prices     map[string]decimal.Decimal
	discounts  map[string]domain.ItemDiscount
	salesPrice map[string]decimal.Decimal
}

func NewStore(keying domain.AdjustmentKeying) *Store {
	if keying != domain.KeyByLine {
		keying = domain.KeyByProduct
	}
	s := &Store{keying: keying}
	s.Reset()
	return s
}

func (s *Store) Keying() domain.AdjustmentKeying {
	return s.keying
}

// KeyFor returns the slot a line's adjustments live under.
func (s *Store) KeyFor(line domain.CartLine) string {
	return domain.Adjustments{Keying: s.keying}.KeyFor(line)
}

func (s *Store) SetTax(c domain.Charge) error {
	if err := validateCharge(c); err != nil {
		return err
	}
	s.tax = c
	return nil
}

func (s *Store) Tax() domain.Charge {
	return s.tax
}

func (s *Store) SetDiscount(c domain.Charge) error {
	if err := validateCharge(c); err != nil {
		return err
	}
	s.discount = c
	return nil
}

func (s *Store) Discount() domain.Charge {
	return s.discount
}

func validateCharge(c domain.Charge) error {
	switch c.Type {
	case domain.ChargeFixed:
	case domain.ChargePercentage:
		if c.Value.GreaterThan(hundred) {
			return ErrInvalidCharge
		}
	default:
		return ErrInvalidCharge
	}
	if c.Value.IsNegative() {
		return ErrInvalidCharge
	}
	return nil
}

func (s *Store) SetPrice(key string, price decimal.Decimal) {
	s.prices[key] = price
}

func (s *Store) Price(key string) (decimal.Decimal, bool) {
	v, ok := s.prices[key]
	return v, ok
}

func (s *Store) ClearPrice(key string) {
	delete(s.prices, key)
}

func (s *Store) SetItemDiscount(key string, d domain.ItemDiscount) {
	s.discounts[key] = d
}

func (s *Store) ItemDiscount(key string) (domain.ItemDiscount, bool) {
	v, ok := s.discounts[key]
	return v, ok
}

func (s *Store) ClearItemDiscount(key string) {
	delete(s.discounts, key)
}

func (s *Store) SetSalesPrice(key string, price decimal.Decimal) {
	s.salesPrice[key] = price
}

func (s *Store) SalesPrice(key string) (decimal.Decimal, bool) {
	v, ok := s.salesPrice[key]
	return v, ok
}

func (s *Store) ClearSalesPrice(key string) {
	delete(s.salesPrice, key)
}

// SeedFromCatalog copies the product's catalog discount and sales price into
// the slot for key. Existing entries are kept, so a value is seeded at most
// once per slot and later catalog changes never reach an already seeded cart.
func (s *Store) SeedFromCatalog(key string, p domain.Product) bool {
	seeded := false
	if p.Discount != nil {
		if _, ok := s.discounts[key]; !ok {
			s.discounts[key] = domain.ItemDiscount{Type: p.Discount.Type, Value: p.Discount.Amount}
			seeded = true
		}
	}
	if p.SalesPrice != nil {
		if _, ok := s.salesPrice[key]; !ok {
			s.salesPrice[key] = *p.SalesPrice
			seeded = true
		}
	}
	return seeded
}

// Snapshot returns a deep copy safe to hand to the pricing calculator.
func (s *Store) Snapshot() domain.Adjustments {
	out := domain.Adjustments{
		Tax:                   s.tax,
		Discount:              s.discount,
		PriceAdjustments:      make(map[string]decimal.Decimal, len(s.prices)),
		DiscountAdjustments:   make(map[string]domain.ItemDiscount, len(s.discounts)),
		SalesPriceAdjustments: make(map[string]decimal.Decimal, len(s.salesPrice)),
		Keying:                s.keying,
	}
	for k, v := range s.prices {
		out.PriceAdjustments[k] = v
	}
	for k, v := range s.discounts {
		out.DiscountAdjustments[k] = v
	}
	for k, v := range s.salesPrice {
		out.SalesPriceAdjustments[k] = v
	}
	return out
}

// Load replaces the store contents with a copy of adj. The store keeps its
// own keying.
func (s *Store) Load(adj domain.Adjustments) {
	s.Reset()
	s.tax = adj.Tax
	s.discount = adj.Discount
	for k, v := range adj.PriceAdjustments {
		s.prices[k] = v
	}
	for k, v := range adj.DiscountAdjustments {
		s.discounts[k] = v
	}
	for k, v := range adj.SalesPriceAdjustments {
		s.salesPrice[k] = v
	}
}

// Reset clears every adjustment; tax and discount become zero fixed charges.
func (s *Store) Reset() {
	s.tax = domain.Charge{Type: domain.ChargeFixed}
	s.discount = domain.Charge{Type: domain.ChargeFixed}
	s.prices = map[string]decimal.Decimal{}
	s.discounts = map[string]domain.ItemDiscount{}
	s.salesPrice = map[string]decimal.Decimal{}
}
