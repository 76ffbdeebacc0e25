package db

import "github.com/shopspring/decimal"

// Money is stored as integer cents.

func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// ToCentsPtr maps a missing value to NULL.
func ToCentsPtr(d *decimal.Decimal) *int64 {
	if d == nil {
		return nil
	}
	c := ToCents(*d)
	return &c
}

func FromCentsPtr(c *int64) *decimal.Decimal {
	if c == nil {
		return nil
	}
	d := FromCents(*c)
	return &d
}
