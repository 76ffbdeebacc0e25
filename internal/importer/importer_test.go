package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"shop-console/internal/domain"

	"github.com/shopspring/decimal"
)

type stubProductRepo struct {
	items    []domain.Product
	variants []domain.ProductVariant
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = fmt.Sprintf("gen-%d", len(s.items)+1)
	}
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubProductRepo) UpsertVariant(_ context.Context, v domain.ProductVariant) (*domain.ProductVariant, error) {
	s.variants = append(s.variants, v)
	return &v, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `id,key,name,price,stock,discount.type,discount.amount,salesPrice,variants.sku,variants.quantity,variants.color,variants.size,variants.image,variants.status
00000000-0000-0000-0000-000000000001,apron,Apron,20.00,5,percentage,10,18.00,,,,,,
,blouse,Blouse,35,,,,,BL-RED-S,0,red,S,https://example.com/red.jpg,
,,,,,,,,BL-RED-M,3,red,M,,
,,,,,,,,BL-BLUE-M,2,blue,M,,inactive
`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, "shop-123", nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}
	if len(repo.items) != 2 {
		t.Fatalf("expected 2 products saved, got %d", len(repo.items))
	}

	apron := repo.items[0]
	if apron.ID != "00000000-0000-0000-0000-000000000001" || apron.ShopID != "shop-123" {
		t.Fatalf("expected id and shop to be preserved, got %+v", apron)
	}
	if !apron.Price.Equal(decimal.NewFromInt(20)) || apron.Stock != 5 {
		t.Fatalf("unexpected product data: %+v", apron)
	}
	if apron.Discount == nil || apron.Discount.Type != domain.DiscountPercentage || !apron.Discount.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected discount: %+v", apron.Discount)
	}
	if apron.SalesPrice == nil || !apron.SalesPrice.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("unexpected sales price: %+v", apron.SalesPrice)
	}

	if len(repo.variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(repo.variants))
	}
	for _, v := range repo.variants {
		if v.ProductID != "gen-2" {
			t.Fatalf("variant %s not linked to blouse: %q", v.SKU, v.ProductID)
		}
	}
	if repo.variants[0].Image != "https://example.com/red.jpg" || repo.variants[0].Quantity != 0 {
		t.Fatalf("unexpected first variant: %+v", repo.variants[0])
	}
	if repo.variants[2].Status != "inactive" || repo.variants[2].Color != "blue" {
		t.Fatalf("unexpected last variant: %+v", repo.variants[2])
	}
}

func TestCSVImporter_RunErrors(t *testing.T) {
	cases := map[string]string{
		"missing price":   "key,name,price\np1,Prod,\n",
		"bad price":       "key,name,price\np1,Prod,abc\n",
		"bad discount":    "key,name,price,discount.type,discount.amount\np1,Prod,1,bogus,1\n",
		"orphan variant":  "key,name,price,variants.sku\n,,,SKU-1\n",
		"bad quantity":    "key,name,price,variants.sku,variants.quantity\np1,Prod,1,SKU-1,-2\n",
		"short id":        "id,key,name,price\nabc,p1,Prod,1\n",
		"negative stock":  "key,name,price,stock\np1,Prod,1,-1\n",
		"bad sales price": "key,name,price,salesPrice\np1,Prod,1,x\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}, "shop", nil)
			if _, err := imp.Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
