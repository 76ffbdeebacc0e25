package httpserver

import (
	"time"

	"shop-console/internal/domain"
	"shop-console/internal/variant"

	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID         string               `json:"id"`
	Key        string               `json:"key"`
	Name       string               `json:"name"`
	Price      decimal.Decimal      `json:"price"`
	Stock      int                  `json:"stock"`
	Discount   *domain.Discount     `json:"discount,omitempty"`
	SalesPrice *decimal.Decimal     `json:"salesPrice,omitempty"`
	InStock    bool                 `json:"inStock"`
	Variants   []variant.ColorGroup `json:"variants,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func toProductResponse(p domain.Product) productResponse {
	inStock := p.Stock > 0
	if p.HasVariants() {
		inStock = false
		for _, v := range p.Variants {
			if v.Selectable() {
				inStock = true
				break
			}
		}
	}
	return productResponse{
		ID:         p.ID,
		Key:        p.Key,
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		Discount:   p.Discount,
		SalesPrice: p.SalesPrice,
		InStock:    inStock,
		Variants:   variant.GroupByColor(p.Variants),
		CreatedAt:  p.CreatedAt,
	}
}

func toProductList(products []domain.Product) listResponse[productResponse] {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return listResponse[productResponse]{Count: len(out), Results: out}
}
