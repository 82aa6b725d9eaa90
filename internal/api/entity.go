package api

import "github.com/shopspring/decimal"

// Ref is a nested read-only projection such as product.name.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Label is the ref's display text.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	return r.Name
}

// LineItem is one row of a transactional document.
type LineItem struct {
	ID          int64               `json:"id"`
	Product     *Ref                `json:"product,omitempty"`
	Description string              `json:"description,omitempty"`
	HsnCode     string              `json:"hsnCode,omitempty"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.Decimal     `json:"unitPrice"`
	Discount    decimal.NullDecimal `json:"discount"`
	CgstRate    decimal.NullDecimal `json:"cgstRate"`
	CgstValue   decimal.NullDecimal `json:"cgstValue"`
	SgstRate    decimal.NullDecimal `json:"sgstRate"`
	SgstValue   decimal.NullDecimal `json:"sgstValue"`
	IgstRate    decimal.NullDecimal `json:"igstRate"`
	IgstValue   decimal.NullDecimal `json:"igstValue"`
	Total       decimal.Decimal     `json:"total"`
}

// TaxValue is the sum of the line's tax amounts.
func (l LineItem) TaxValue() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range []decimal.NullDecimal{l.CgstValue, l.SgstValue, l.IgstValue} {
		if v.Valid {
			sum = sum.Add(v.Decimal)
		}
	}
	return sum
}
