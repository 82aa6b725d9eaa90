package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Quotation is an offer made to a customer.
type Quotation struct {
	ID        int64           `json:"id"`
	Number    string          `json:"quotationNo"`
	Date      string          `json:"quotationDate"`
	ValidTill string          `json:"validTill,omitempty"`
	Customer  *Ref            `json:"customer,omitempty"`
	Currency  *Ref            `json:"currency,omitempty"`
	Status    string          `json:"status,omitempty"`
	Total     decimal.Decimal `json:"totalAmount"`
}

// ProformaInvoice is produced by confirming a quotation.
type ProformaInvoice struct {
	ID                      int64           `json:"id"`
	Number                  string          `json:"proformaInvoiceNo"`
	Date                    string          `json:"proformaInvoiceDate"`
	Customer                *Ref            `json:"customer,omitempty"`
	Quotation               *Ref            `json:"quotation,omitempty"`
	ExtraCharges            decimal.Decimal `json:"extraCharges"`
	ExtraChargesDescription string          `json:"extraChargesDescription,omitempty"`
	Total                   decimal.Decimal `json:"totalAmount"`
}

// SalesInvoice is the tax invoice issued to a customer.
type SalesInvoice struct {
	ID            int64           `json:"id"`
	Number        string          `json:"invoiceNo"`
	Date          string          `json:"invoiceDate"`
	Customer      *Ref            `json:"customer,omitempty"`
	Currency      *Ref            `json:"currency,omitempty"`
	PlaceOfSupply string          `json:"placeOfSupply,omitempty"`
	TaxableValue  decimal.Decimal `json:"taxableValue"`
	TaxValue      decimal.Decimal `json:"taxValue"`
	Total         decimal.Decimal `json:"totalAmount"`
}

// DefaultExtraChargesDescription is used when a confirmation leaves the description blank.
const DefaultExtraChargesDescription = "Extra Charges"

// ConfirmQuotation is the body of a quotation confirmation.
type ConfirmQuotation struct {
	LineItemIDs             []int64         `json:"lineItemIds"`
	ExtraCharges            decimal.Decimal `json:"extraCharges"`
	ExtraChargesDescription string          `json:"extraChargesDescription"`
}

// MarshalJSON sends the extra charges as a JSON number.
func (c ConfirmQuotation) MarshalJSON() ([]byte, error) {
	type wire struct {
		LineItemIDs             []int64     `json:"lineItemIds"`
		ExtraCharges            json.Number `json:"extraCharges"`
		ExtraChargesDescription string      `json:"extraChargesDescription"`
	}
	return json.Marshal(wire{
		LineItemIDs:             c.LineItemIDs,
		ExtraCharges:            json.Number(c.ExtraCharges.String()),
		ExtraChargesDescription: c.ExtraChargesDescription,
	})
}

// ErrNoLinesSelected is returned when a confirmation carries no line items.
var ErrNoLinesSelected = errors.New("select at least one line item")

// Confirm turns the selected lines of a quotation into a proforma invoice.
func (r *Resource[T]) Confirm(ctx context.Context, id int64, body ConfirmQuotation) error {
	if len(body.LineItemIDs) == 0 {
		return ErrNoLinesSelected
	}
	if body.ExtraChargesDescription == "" {
		body.ExtraChargesDescription = DefaultExtraChargesDescription
	}
	err := r.client.Request(ctx, http.MethodPost, fmt.Sprintf("%s/%d/confirm", r.path, id), nil, body, nil)
	if err == nil {
		r.client.log.Info().Str("resource", r.path).Int64("id", id).Int("lines", len(body.LineItemIDs)).Msg("confirmed")
	}
	return err
}
