package seed

import (
	"context"
	"fmt"

	"shop-console/internal/domain"

	"github.com/shopspring/decimal"
)

type ShopWriter interface {
	Create(ctx context.Context, shop *domain.Shop) (*domain.Shop, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error)
}

type productSeed struct {
	Key        string
	Name       string
	Price      string
	Stock      int
	Discount   *domain.Discount
	SalesPrice string
	Variants   []domain.ProductVariant
}

// DemoShopKey is the shop the seed data lands in.
const DemoShopKey = "demo"

// Apply inserts demo data for manual testing. It is idempotent: the shop and
// products are upserted by key and variants by SKU.
func Apply(ctx context.Context, shops ShopWriter, products ProductWriter) (*domain.Shop, error) {
	shop, err := shops.Create(ctx, &domain.Shop{Key: DemoShopKey, Name: "Demo Boutique"})
	if err != nil {
		return nil, fmt.Errorf("ensure shop: %w", err)
	}

	seeds := []productSeed{
		{
			Key:   "demo-apron",
			Name:  "Linen Apron",
			Price: "20.00",
			Stock: 5,
		},
		{
			Key:        "demo-mug",
			Name:       "Demo Mug",
			Price:      "12.99",
			Stock:      12,
			Discount:   &domain.Discount{Type: domain.DiscountPercentage, Amount: decimal.NewFromInt(10)},
			SalesPrice: "11.69",
		},
		{
			Key:   "demo-blouse",
			Name:  "Silk Blouse",
			Price: "35.00",
			Variants: []domain.ProductVariant{
				{SKU: "BLOUSE-RED-S", Color: "red", Size: "S", Quantity: 0},
				{SKU: "BLOUSE-RED-M", Color: "red", Size: "M", Quantity: 3},
				{SKU: "BLOUSE-BLUE-M", Color: "blue", Size: "M", Quantity: 2},
			},
		},
	}

	for _, s := range seeds {
		if err := upsertProduct(ctx, products, shop.ID, s); err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", s.Key, err)
		}
	}

	return shop, nil
}

func upsertProduct(ctx context.Context, products ProductWriter, shopID string, s productSeed) error {
	p := domain.Product{
		ShopID:   shopID,
		Key:      s.Key,
		Name:     s.Name,
		Price:    decimal.RequireFromString(s.Price),
		Stock:    s.Stock,
		Discount: s.Discount,
	}
	if s.SalesPrice != "" {
		sp := decimal.RequireFromString(s.SalesPrice)
		p.SalesPrice = &sp
	}
	saved, err := products.Upsert(ctx, p)
	if err != nil {
		return err
	}
	for _, v := range s.Variants {
		v.ProductID = saved.ID
		if _, err := products.UpsertVariant(ctx, v); err != nil {
			return fmt.Errorf("variant %s: %w", v.SKU, err)
		}
	}
	return nil
}
