package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType describes how a catalog discount amount is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// Discount is the catalog-level discount descriptor attached to a product.
type Discount struct {
	Type   DiscountType    `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Product is read-only catalog data. Stock is only meaningful when the
// product has no variants.
type Product struct {
	ID         string           `json:"id"`
	ShopID     string           `json:"-"`
	Key        string           `json:"key"`
	Name       string           `json:"name"`
	Price      decimal.Decimal  `json:"price"`
	Stock      int              `json:"stock"`
	Discount   *Discount        `json:"discount,omitempty"`
	SalesPrice *decimal.Decimal `json:"salesPrice,omitempty"`
	Variants   []ProductVariant `json:"variants,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// HasVariants reports whether identity and stock come from a chosen variant.
func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant returns the variant with the given id.
func (p Product) Variant(id string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

type ProductVariant struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Selectable reports whether the variant can be picked for a new line.
func (v ProductVariant) Selectable() bool {
	return v.Quantity > 0
}
