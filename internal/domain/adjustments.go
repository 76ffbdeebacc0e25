package domain

import "github.com/shopspring/decimal"

// ChargeType describes how a cart-level tax or discount value is applied.
type ChargeType string

const (
	ChargeFixed      ChargeType = "fixed"
	ChargePercentage ChargeType = "percentage"
)

// Charge is a cart-level tax or discount.
type Charge struct {
	Type  ChargeType      `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Amount resolves the charge against a subtotal.
func (c Charge) Amount(subtotal decimal.Decimal) decimal.Decimal {
	if c.Type == ChargePercentage {
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	}
	return c.Value
}

// ItemDiscount is a per-item discount override.
type ItemDiscount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// AdjustmentKeying selects what identifies a per-item adjustment slot.
//
// KeyByProduct shares one slot between every line of the same product, so two
// variants of one product cannot carry different overrides. KeyByLine gives
// each line its own slot.
type AdjustmentKeying string

const (
	KeyByProduct AdjustmentKeying = "product"
	KeyByLine    AdjustmentKeying = "line"
)

// Adjustments holds the overrides applied on top of catalog prices.
type Adjustments struct {
	Tax                   Charge                     `json:"tax"`
	Discount              Charge                     `json:"discount"`
	PriceAdjustments      map[string]decimal.Decimal `json:"priceAdjustments"`
	DiscountAdjustments   map[string]ItemDiscount    `json:"discountAdjustments"`
	SalesPriceAdjustments map[string]decimal.Decimal `json:"salesPriceAdjustments"`
	Keying                AdjustmentKeying           `json:"keying"`
}

// KeyFor returns the adjustment key for a line under the configured keying.
func (a Adjustments) KeyFor(line CartLine) string {
	if a.Keying == KeyByLine {
		return line.LineID
	}
	return line.ProductID
}
