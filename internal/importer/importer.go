package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"shop-console/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, variant domain.ProductVariant) (*domain.ProductVariant, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products with
// their variants.
//
// A row with a key starts a product. Following rows with an empty key and a
// variant SKU add variants to it; the product row may carry its first variant
// in the same line.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	shopID      string
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, shopID string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		shopID:      shopID,
		logger:      logger,
	}
}

type csvRow struct {
	line       int
	ID         string
	Key        string
	Name       string
	Price      string
	Stock      string
	DiscType   string
	DiscAmount string
	SalesPrice string
	Variants   []domain.ProductVariant
}

// Run parses CSV rows and upserts products grouped by product key. It returns
// the number of products written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.line = line

		if row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (variants) belong to the current product.
		if current == nil {
			return imported, fmt.Errorf("row %d: variant row before any product", line)
		}
		current.Variants = append(current.Variants, row.Variants...)
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Key == "" || row.Name == "" || row.Price == "" {
		return fmt.Errorf("invalid product row %d (missing required fields) for key %q", row.line, row.Key)
	}
	if row.ID != "" && len(row.ID) != 36 {
		return fmt.Errorf("invalid id for key %q: %s", row.Key, row.ID)
	}

	price, err := decimal.NewFromString(row.Price)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("invalid price for key %q: %q", row.Key, row.Price)
	}
	p := domain.Product{
		ID:     row.ID,
		ShopID: i.shopID,
		Key:    row.Key,
		Name:   row.Name,
		Price:  price,
	}
	if row.Stock != "" {
		if p.Stock, err = strconv.Atoi(row.Stock); err != nil || p.Stock < 0 {
			return fmt.Errorf("invalid stock for key %q: %q", row.Key, row.Stock)
		}
	}
	if row.DiscType != "" {
		amount, err := decimal.NewFromString(row.DiscAmount)
		if err != nil {
			return fmt.Errorf("invalid discount for key %q: %q", row.Key, row.DiscAmount)
		}
		kind := domain.DiscountType(strings.ToLower(row.DiscType))
		if kind != domain.DiscountPercentage && kind != domain.DiscountAmount {
			return fmt.Errorf("invalid discount type for key %q: %q", row.Key, row.DiscType)
		}
		p.Discount = &domain.Discount{Type: kind, Amount: amount}
	}
	if row.SalesPrice != "" {
		sp, err := decimal.NewFromString(row.SalesPrice)
		if err != nil {
			return fmt.Errorf("invalid sales price for key %q: %q", row.Key, row.SalesPrice)
		}
		p.SalesPrice = &sp
	}

	saved, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	for _, v := range row.Variants {
		v.ProductID = saved.ID
		if _, err := i.productRepo.UpsertVariant(ctx, v); err != nil {
			return fmt.Errorf("upsert variant %q of %q: %w", v.SKU, row.Key, err)
		}
	}
	i.logger.Debug("importer: product saved", zap.String("key", row.Key), zap.Int("variants", len(row.Variants)))
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	key := pick(record, index, "key")
	sku := pick(record, index, "variants.sku")

	if key == "" && sku == "" {
		return nil, nil
	}

	row := &csvRow{
		ID:         pick(record, index, "id"),
		Key:        key,
		Name:       pick(record, index, "name"),
		Price:      pick(record, index, "price"),
		Stock:      pick(record, index, "stock"),
		DiscType:   pick(record, index, "discount.type"),
		DiscAmount: pick(record, index, "discount.amount"),
		SalesPrice: pick(record, index, "salesPrice"),
	}
	if sku != "" {
		qty := 0
		if raw := pick(record, index, "variants.quantity"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid variant quantity %q for %s", raw, sku)
			}
			qty = n
		}
		row.Variants = []domain.ProductVariant{{
			SKU:      sku,
			Quantity: qty,
			Color:    pick(record, index, "variants.color"),
			Size:     pick(record, index, "variants.size"),
			Image:    pick(record, index, "variants.image"),
			Status:   pick(record, index, "variants.status"),
		}}
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
