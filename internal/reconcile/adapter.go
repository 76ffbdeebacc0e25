// Package reconcile rebuilds cart lines and adjustments from a persisted
// order so that editing the order reproduces the totals already stored.
package reconcile

import (
	"errors"
	"fmt"

	"shop-console/internal/domain"
	"shop-console/internal/pricing"

	"github.com/shopspring/decimal"
)

var ErrInvalidOrderLine = errors.New("invalid order line")

// StockView reports current catalog stock for a product or variant.
type StockView interface {
	Available(productID, variantID string) int
}

// StockFunc adapts a function to StockView.
type StockFunc func(productID, variantID string) int

func (f StockFunc) Available(productID, variantID string) int { return f(productID, variantID) }

// Result is the editable state rebuilt from an order.
type Result struct {
	Lines       []domain.CartLine
	Adjustments domain.Adjustments
	Context     domain.OrderContext
}

// Adapt maps a persisted order back into cart state.
//
// Each line's unit price becomes the pre-discount price (charged price plus
// unit discount). The charged price is written to both the sales-price and
// price adjustment slots, so the calculator sums what was actually charged
// while the line still shows its original price. Cart-level tax and discount
// are carried as fixed amounts equal to the stored ones.
//
// A line's stock ceiling is current stock plus the units the order already
// holds. Lines with the same identity are merged; when their charged prices
// differ the merged line is charged the average so the subtotal is kept.
func Adapt(order domain.PersistedOrder, stock StockView, keying domain.AdjustmentKeying) (Result, error) {
	if keying != domain.KeyByLine {
		keying = domain.KeyByProduct
	}
	adj := domain.Adjustments{
		Tax:                   domain.Charge{Type: domain.ChargeFixed, Value: order.TaxAmount},
		Discount:              domain.Charge{Type: domain.ChargeFixed, Value: order.DiscountAmount},
		PriceAdjustments:      map[string]decimal.Decimal{},
		DiscountAdjustments:   map[string]domain.ItemDiscount{},
		SalesPriceAdjustments: map[string]decimal.Decimal{},
		Keying:                keying,
	}

	lines := make([]domain.CartLine, 0, len(order.Lines))
	pos := make(map[string]int, len(order.Lines))
	charged := make(map[string]chargedUnits, len(order.Lines))
	for i, src := range order.Lines {
		if src.ProductID == "" || src.Quantity < 1 {
			return Result{}, fmt.Errorf("order %s line %d: %w", order.ID, i, ErrInvalidOrderLine)
		}
		lineID := domain.LineID(src.ProductID, src.VariantID)
		subtotal := src.LineSubtotal()

		if j, ok := pos[lineID]; ok {
			merged := &lines[j]
			merged.Quantity += src.Quantity
			sum := merged.Subtotal.Add(subtotal)
			merged.Subtotal = &sum
			merged.AvailableStock += src.Quantity

			c := charged[lineID]
			c.amount = c.amount.Add(src.Price().Mul(decimal.NewFromInt(int64(src.Quantity))))
			c.mixed = c.mixed || !src.Price().Equal(c.price)
			charged[lineID] = c
			if c.mixed {
				key := adj.KeyFor(*merged)
				avg := c.amount.Div(decimal.NewFromInt(int64(merged.Quantity)))
				adj.PriceAdjustments[key] = avg
				adj.SalesPriceAdjustments[key] = avg
			}
			continue
		}

		discount := src.Discount()
		original := src.Original()
		purchase := src.Purchase()
		line := domain.CartLine{
			LineID:            lineID,
			ProductID:         src.ProductID,
			VariantID:         src.VariantID,
			Name:              src.Name,
			Quantity:          src.Quantity,
			UnitPrice:         src.Price().Add(discount),
			AvailableStock:    src.Quantity,
			OriginalUnitPrice: &original,
			PurchasePrice:     &purchase,
			DiscountType:      src.DiscountType,
			UnitDiscount:      &discount,
			Subtotal:          &subtotal,
		}
		if stock != nil {
			line.AvailableStock += max(stock.Available(src.ProductID, src.VariantID), 0)
		}

		key := adj.KeyFor(line)
		if discount.IsPositive() && src.DiscountType != nil {
			adj.DiscountAdjustments[key] = domain.ItemDiscount{Type: *src.DiscountType, Value: discount}
		}
		if src.UnitPrice != nil {
			adj.SalesPriceAdjustments[key] = *src.UnitPrice
		}
		if src.UnitPrice != nil || !discount.IsZero() {
			adj.PriceAdjustments[key] = src.Price()
		}

		pos[lineID] = len(lines)
		charged[lineID] = chargedUnits{price: src.Price(), amount: src.Price().Mul(decimal.NewFromInt(int64(src.Quantity)))}
		lines = append(lines, line)
	}

	return Result{Lines: lines, Adjustments: adj, Context: order.Context}, nil
}

// chargedUnits tracks what a merged line was actually charged. Once its
// source lines disagree on price, the merged line charges their average.
type chargedUnits struct {
	price  decimal.Decimal
	amount decimal.Decimal
	mixed  bool
}

// Verify checks recomputed totals against the stored order and reports drift
// beyond one cent as a ReconciliationError.
func Verify(order domain.PersistedOrder, totals pricing.Totals) error {
	if !pricing.Equal(order.Subtotal, totals.Subtotal, pricing.Cent) {
		return &domain.ReconciliationError{OrderID: order.ID, Field: "subtotal", Stored: order.Subtotal, Computed: totals.Subtotal}
	}
	if !pricing.Equal(order.Total, totals.Total, pricing.Cent) {
		return &domain.ReconciliationError{OrderID: order.ID, Field: "total", Stored: order.Total, Computed: totals.Total}
	}
	return nil
}
