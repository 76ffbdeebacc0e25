package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInfo is carried with an order for display and editing continuity.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PaymentInfo is the customer-facing payment breakdown of an order.
type PaymentInfo struct {
	Method string          `json:"method,omitempty"`
	Wallet decimal.Decimal `json:"wallet"`
	Card   decimal.Decimal `json:"card"`
	Cash   decimal.Decimal `json:"cash"`
}

// OrderContext is the non-pricing metadata of an order being built or edited.
type OrderContext struct {
	Customer CustomerInfo `json:"customer"`
	Payment  PaymentInfo  `json:"payment"`
	Table    string       `json:"table,omitempty"`
	Guests   int          `json:"guests,omitempty"`
}

// PersistedOrderLine is a stored order line. Optional fields are nil when the
// stored record did not carry them; see the accessor methods for defaults.
type PersistedOrderLine struct {
	ProductID         string           `json:"productId"`
	VariantID         string           `json:"variantId,omitempty"`
	Name              string           `json:"name,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	UnitDiscount      *decimal.Decimal `json:"unitDiscount,omitempty"`
	DiscountType      *DiscountType    `json:"discountType,omitempty"`
	OriginalUnitPrice *decimal.Decimal `json:"originalUnitPrice,omitempty"`
	PurchasePrice     *decimal.Decimal `json:"purchasePrice,omitempty"`
	Subtotal          *decimal.Decimal `json:"subtotal,omitempty"`
}

// Discount defaults to zero.
func (l PersistedOrderLine) Discount() decimal.Decimal {
	if l.UnitDiscount == nil {
		return decimal.Zero
	}
	return *l.UnitDiscount
}

// Price is the unit price actually charged. Without a stored unit price it is
// derived from the original price minus the discount, or zero.
func (l PersistedOrderLine) Price() decimal.Decimal {
	if l.UnitPrice != nil {
		return *l.UnitPrice
	}
	if l.OriginalUnitPrice != nil {
		return l.OriginalUnitPrice.Sub(l.Discount())
	}
	return decimal.Zero
}

// Original defaults to the charged price plus the discount.
func (l PersistedOrderLine) Original() decimal.Decimal {
	if l.OriginalUnitPrice != nil {
		return *l.OriginalUnitPrice
	}
	return l.Price().Add(l.Discount())
}

// Purchase defaults to zero.
func (l PersistedOrderLine) Purchase() decimal.Decimal {
	if l.PurchasePrice == nil {
		return decimal.Zero
	}
	return *l.PurchasePrice
}

// LineSubtotal defaults to price times quantity.
func (l PersistedOrderLine) LineSubtotal() decimal.Decimal {
	if l.Subtotal != nil {
		return *l.Subtotal
	}
	return l.Price().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PersistedOrder is an order as returned by the order store.
type PersistedOrder struct {
	ID             string               `json:"id"`
	ShopID         string               `json:"-"`
	Lines          []PersistedOrderLine `json:"lines"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxAmount      decimal.Decimal      `json:"taxAmount"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	Total          decimal.Decimal      `json:"total"`
	Context        OrderContext         `json:"context"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}
