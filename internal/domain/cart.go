package domain

import "github.com/shopspring/decimal"

// DefaultVariant is the variant part of a line id for products without variants.
const DefaultVariant = "default"

// LineID builds the composite identity of a cart line.
func LineID(productID, variantID string) string {
	if variantID == "" {
		variantID = DefaultVariant
	}
	return productID + "-" + variantID
}

// CartLine is one priced, quantity-bearing entry of an in-progress cart.
// AvailableStock is an upper bound taken from the catalog and never persisted.
type CartLine struct {
	LineID         string          `json:"lineId"`
	ProductID      string          `json:"productId"`
	VariantID      string          `json:"variantId,omitempty"`
	Name           string          `json:"name,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	AvailableStock int             `json:"-"`

	OriginalUnitPrice *decimal.Decimal `json:"originalUnitPrice,omitempty"`
	PurchasePrice     *decimal.Decimal `json:"purchasePrice,omitempty"`
	DiscountType      *DiscountType    `json:"discountType,omitempty"`
	UnitDiscount      *decimal.Decimal `json:"unitDiscount,omitempty"`
	Subtotal          *decimal.Decimal `json:"subtotal,omitempty"`
}
