package api

import "github.com/shopspring/decimal"

// Product is a stocked item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Category    *Ref            `json:"productCategory,omitempty"`
	Hsn         *Ref            `json:"hsnConfiguration,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       decimal.Decimal `json:"stock"`
}

// ProductCategory groups products.
type ProductCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Currency is a trading currency.
type Currency struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Symbol string `json:"symbol,omitempty"`
}

// HsnConfiguration is an HSN tax code with its GST rates.
type HsnConfiguration struct {
	ID          int64           `json:"id"`
	HsnCode     string          `json:"hsnCode"`
	Description string          `json:"description,omitempty"`
	CgstRate    decimal.Decimal `json:"cgstRate"`
	SgstRate    decimal.Decimal `json:"sgstRate"`
	IgstRate    decimal.Decimal `json:"igstRate"`
}
