// Package pricing turns cart lines and adjustments into totals.
//
// The steps run in a fixed order: effective unit price, subtotal, cart
// discount, tax on the pre-discount subtotal, total. Per-item discounts and
// sales prices are carried for display only; they change the sum only when
// the price adjustment for the same key is kept in sync.
package pricing

import (
	"shop-console/internal/domain"

	"github.com/shopspring/decimal"
)

// Cent is the comparison tolerance for stored money values.
var Cent = decimal.New(1, -2)

type LineTotal struct {
	LineID             string               `json:"lineId"`
	ProductID          string               `json:"productId"`
	Quantity           int                  `json:"quantity"`
	EffectiveUnitPrice decimal.Decimal      `json:"effectiveUnitPrice"`
	DisplayPrice       decimal.Decimal      `json:"displayPrice"`
	ItemDiscount       *domain.ItemDiscount `json:"itemDiscount,omitempty"`
	Amount             decimal.Decimal      `json:"amount"`
}

type Totals struct {
	Lines          []LineTotal     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
}

// Calculate is pure: identical inputs give identical totals.
func Calculate(lines []domain.CartLine, adj domain.Adjustments) Totals {
	out := Totals{
		Lines:    make([]LineTotal, 0, len(lines)),
		Subtotal: decimal.Zero,
	}
	for _, line := range lines {
		key := adj.KeyFor(line)
		effective := line.UnitPrice
		if p, ok := adj.PriceAdjustments[key]; ok {
			effective = p
		}
		display := effective
		if p, ok := adj.SalesPriceAdjustments[key]; ok {
			display = p
		}
		lt := LineTotal{
			LineID:             line.LineID,
			ProductID:          line.ProductID,
			Quantity:           line.Quantity,
			EffectiveUnitPrice: effective,
			DisplayPrice:       display,
			Amount:             effective.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if d, ok := adj.DiscountAdjustments[key]; ok {
			lt.ItemDiscount = &d
		}
		out.Lines = append(out.Lines, lt)
		out.Subtotal = out.Subtotal.Add(lt.Amount)
	}
	out.DiscountAmount = adj.Discount.Amount(out.Subtotal)
	out.TaxAmount = adj.Tax.Amount(out.Subtotal)
	out.Total = out.Subtotal.Sub(out.DiscountAmount).Add(out.TaxAmount)
	return out
}

// Rounded returns the totals rounded half-up to cents, as persisted.
func (t Totals) Rounded() Totals {
	out := Totals{
		Lines:          make([]LineTotal, len(t.Lines)),
		Subtotal:       t.Subtotal.Round(2),
		DiscountAmount: t.DiscountAmount.Round(2),
		TaxAmount:      t.TaxAmount.Round(2),
		Total:          t.Total.Round(2),
	}
	for i, l := range t.Lines {
		l.Amount = l.Amount.Round(2)
		out.Lines[i] = l
	}
	return out
}

// Equal reports whether a and b differ by at most epsilon.
func Equal(a, b, epsilon decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(epsilon)
}
