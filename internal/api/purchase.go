package api

import "github.com/shopspring/decimal"

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID           int64           `json:"id"`
	Number       string          `json:"purchaseOrderNo"`
	Date         string          `json:"purchaseOrderDate"`
	Supplier     *Ref            `json:"supplier,omitempty"`
	Currency     *Ref            `json:"currency,omitempty"`
	DeliveryDate string          `json:"deliveryDate,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
	Total        decimal.Decimal `json:"totalAmount"`
}
