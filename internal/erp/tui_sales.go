package erp

import (
	"context"
	"fmt"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/format"
	"github.com/mikelcalvo/erp-console/internal/query"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

func salesScreens(svc *api.Services) []*screen.Definition {
	return []*screen.Definition{
		quotationScreen(svc),
		proformaInvoiceScreen(svc),
		salesInvoiceScreen(svc),
	}
}

var documentColumns = []screen.Column{
	{Title: "Number", Width: 14},
	{Title: "Date", Width: 10},
}

func documentCells(number, date string, rest ...string) []string {
	return append([]string{number, format.Date(date)}, rest...)
}

func quotationScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.Quotations.Get, svc.QuotationLines, report.QuotationDocument)

	return screen.Define(screen.Spec[api.Quotation]{
		Entity:    "quotation",
		Noun:      "Quotation",
		Title:     "Quotations",
		Key:       listKey(api.PathQuotations),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "Customer", Width: 24},
			screen.Column{Title: "Valid till", Width: 10},
			screen.Column{Title: "Status", Width: 10},
			screen.Column{Title: "Total", Width: 14},
		),
		Filters: []screen.Filter{{Name: "quotationNo", Label: "Number"}, {Name: "customer", Label: "Customer"}},
		Fields: form.Schema{
			{Name: "quotationDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "validTill", Label: "Valid till", Kind: form.Date},
			{Name: "customerId", Label: "Customer", Kind: form.Select, Required: true},
			{Name: "currencyId", Label: "Currency", Kind: form.Select},
		},
		Options: map[string]screen.OptionsFunc{
			"customerId": customerOptions(svc),
			"currencyId": currencyOptions(svc),
		},
		Row: func(q api.Quotation) screen.Row {
			return screen.Row{ID: q.ID, Label: q.Number, Cells: documentCells(q.Number, q.Date,
				q.Customer.Label(), format.Date(q.ValidTill), q.Status, format.Currency(q.Total))}
		},
		Prefill: func(q api.Quotation) form.Values {
			return form.Values{
				"quotationDate": dateValue(q.Date), "validTill": dateValue(q.ValidTill),
				"customerId": refID(q.Customer), "currencyId": refID(q.Currency),
			}
		},
		List:   svc.Quotations.List,
		Create: svc.Quotations.Create,
		Update: svc.Quotations.Update,
		Delete: svc.Quotations.Delete,
		Export: svc.Quotations.Export,
		Report: func(ctx context.Context, q api.Quotation) (*report.Document, error) {
			return build(ctx, q.ID)
		},
		Lines:     lineScreen(svc, "quotation", "Quotation", api.PathQuotations, svc.QuotationLines),
		Selection: confirmQuotation(svc),
	})
}

// confirmQuotation turns checked quotation lines into a proforma invoice.
func confirmQuotation(svc *api.Services) *screen.Selection {
	return &screen.Selection{
		Label: "Confirm",
		Title: "Confirm quotation",
		Invalidates: []query.Key{
			listKey(api.PathQuotations),
			linesKey(api.PathQuotations),
			listKey(api.PathProformaInvoices),
		},
		Load: func(ctx context.Context, row screen.Row) ([]screen.SelectionItem, error) {
			lines, err := svc.QuotationLines.View(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			items := make([]screen.SelectionItem, 0, len(lines))
			for _, l := range lines {
				r := lineRow(l)
				items = append(items, screen.SelectionItem{
					ID:    l.ID,
					Label: fmt.Sprintf("%s × %s @ %s", r.Label, l.Quantity.String(), format.Currency(l.UnitPrice)),
				})
			}
			return items, nil
		},
		Submit: func(ctx context.Context, row screen.Row, req screen.SelectionRequest) error {
			return svc.Quotations.Confirm(ctx, row.ID, api.ConfirmQuotation{
				LineItemIDs:             req.IDs,
				ExtraCharges:            req.ExtraCharges,
				ExtraChargesDescription: req.Description,
			})
		},
	}
}

func proformaInvoiceScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.ProformaInvoices.Get, svc.ProformaInvoiceLines, report.ProformaInvoiceDocument)

	return screen.Define(screen.Spec[api.ProformaInvoice]{
		Entity:    "proforma-invoice",
		Noun:      "Proforma invoice",
		Title:     "Proforma Invoices",
		Key:       listKey(api.PathProformaInvoices),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "Customer", Width: 24},
			screen.Column{Title: "Quotation", Width: 14},
			screen.Column{Title: "Extra", Width: 10},
			screen.Column{Title: "Total", Width: 14},
		),
		Filters: []screen.Filter{{Name: "proformaInvoiceNo", Label: "Number"}, {Name: "customer", Label: "Customer"}},
		// Proformas are created by confirming a quotation; only the charges are editable.
		Fields: form.Schema{
			{Name: "proformaInvoiceDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "extraCharges", Label: "Extra charges", Kind: form.Number, Min: nonNegative},
			{Name: "extraChargesDescription", Label: "Charges label", Kind: form.Text, MaxLen: 100},
		},
		Row: func(p api.ProformaInvoice) screen.Row {
			return screen.Row{ID: p.ID, Label: p.Number, Cells: documentCells(p.Number, p.Date,
				p.Customer.Label(), p.Quotation.Label(), format.Currency(p.ExtraCharges), format.Currency(p.Total))}
		},
		Prefill: func(p api.ProformaInvoice) form.Values {
			return form.Values{
				"proformaInvoiceDate":     dateValue(p.Date),
				"extraCharges":            p.ExtraCharges.String(),
				"extraChargesDescription": p.ExtraChargesDescription,
			}
		},
		List:   svc.ProformaInvoices.List,
		Update: svc.ProformaInvoices.Update,
		Delete: svc.ProformaInvoices.Delete,
		Export: svc.ProformaInvoices.Export,
		Report: func(ctx context.Context, p api.ProformaInvoice) (*report.Document, error) {
			return build(ctx, p.ID)
		},
		Lines: lineScreen(svc, "proforma-invoice", "Proforma invoice", api.PathProformaInvoices, svc.ProformaInvoiceLines),
	})
}

func salesInvoiceScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.SalesInvoices.Get, svc.SalesInvoiceLines, report.SalesInvoiceDocument)

	return screen.Define(screen.Spec[api.SalesInvoice]{
		Entity:    "sales-invoice",
		Noun:      "Sales invoice",
		Title:     "Sales Invoices",
		Key:       listKey(api.PathSalesInvoices),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "Customer", Width: 24},
			screen.Column{Title: "Taxable", Width: 12},
			screen.Column{Title: "Tax", Width: 10},
			screen.Column{Title: "Total", Width: 14},
		),
		Filters: []screen.Filter{{Name: "invoiceNo", Label: "Number"}, {Name: "customer", Label: "Customer"}},
		Fields: form.Schema{
			{Name: "invoiceDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "customerId", Label: "Customer", Kind: form.Select, Required: true},
			{Name: "currencyId", Label: "Currency", Kind: form.Select},
			{Name: "placeOfSupply", Label: "Place of supply", Kind: form.Text, MaxLen: 60},
		},
		Options: map[string]screen.OptionsFunc{
			"customerId": customerOptions(svc),
			"currencyId": currencyOptions(svc),
		},
		Row: func(inv api.SalesInvoice) screen.Row {
			return screen.Row{ID: inv.ID, Label: inv.Number, Cells: documentCells(inv.Number, inv.Date,
				inv.Customer.Label(), format.Currency(inv.TaxableValue), format.Currency(inv.TaxValue), format.Currency(inv.Total))}
		},
		Prefill: func(inv api.SalesInvoice) form.Values {
			return form.Values{
				"invoiceDate": dateValue(inv.Date), "customerId": refID(inv.Customer),
				"currencyId": refID(inv.Currency), "placeOfSupply": inv.PlaceOfSupply,
			}
		},
		List:   svc.SalesInvoices.List,
		Create: svc.SalesInvoices.Create,
		Update: svc.SalesInvoices.Update,
		Delete: svc.SalesInvoices.Delete,
		Export: svc.SalesInvoices.Export,
		Report: func(ctx context.Context, inv api.SalesInvoice) (*report.Document, error) {
			return build(ctx, inv.ID)
		},
		Lines: lineScreen(svc, "sales-invoice", "Sales invoice", api.PathSalesInvoices, svc.SalesInvoiceLines),
	})
}
