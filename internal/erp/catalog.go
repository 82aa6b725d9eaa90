package erp

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/format"
	"github.com/mikelcalvo/erp-console/internal/permission"
	"github.com/mikelcalvo/erp-console/internal/query"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

// Category is one entry of the main menu.
type Category struct {
	Title       string
	Description string
	Screens     []*screen.Definition
}

// NewCatalog builds every screen of the console.
func NewCatalog(svc *api.Services) []Category {
	return []Category{
		{Title: "Masters", Description: "Companies, customers, suppliers, products, tax codes, users", Screens: masterScreens(svc)},
		{Title: "Sales", Description: "Quotations, proforma invoices, sales invoices", Screens: salesScreens(svc)},
		{Title: "Purchasing", Description: "Purchase orders", Screens: purchasingScreens(svc)},
		{Title: "Stock", Description: "Dispatch challans, stock transfers", Screens: stockScreens(svc)},
	}
}

// Cache keys are the collection paths.
func listKey(path string) query.Key { return query.Key(path) }

func linesKey(path string) query.Key { return query.Key(path + "/lines") }

var nonNegative = decimal.NewNullDecimal(decimal.Zero)

func itoa(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func refID(r *api.Ref) string {
	if r == nil {
		return ""
	}
	return itoa(r.ID)
}

// dateValue trims an ISO timestamp to the form's date input.
func dateValue(iso string) string {
	if len(iso) >= len(form.DateLayout) {
		return iso[:len(form.DateLayout)]
	}
	return iso
}

// lookup turns a collection into select options.
func lookup[T any](all func(context.Context, api.Filters) ([]T, error), option func(T) form.Option) screen.OptionsFunc {
	return func(ctx context.Context, _ form.Values) ([]form.Option, error) {
		items, err := all(ctx, nil)
		if err != nil {
			return nil, err
		}
		opts := make([]form.Option, 0, len(items))
		for _, it := range items {
			opts = append(opts, option(it))
		}
		return opts, nil
	}
}

func countryOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Countries.All, func(c api.Country) form.Option {
		return form.Option{Value: itoa(c.ID), Label: c.Name}
	})
}

// stateOptions lists the states of the selected country; none until a country is chosen.
func stateOptions(svc *api.Services) screen.OptionsFunc {
	return func(ctx context.Context, v form.Values) ([]form.Option, error) {
		country := v["countryId"]
		if country == "" {
			return nil, nil
		}
		states, err := svc.States.All(ctx, api.Filters{"countryId": country})
		if err != nil {
			return nil, err
		}
		opts := make([]form.Option, 0, len(states))
		for _, s := range states {
			opts = append(opts, form.Option{Value: itoa(s.ID), Label: s.Name})
		}
		return opts, nil
	}
}

func currencyOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Currencies.All, func(c api.Currency) form.Option {
		return form.Option{Value: itoa(c.ID), Label: c.Code}
	})
}

func customerOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Customers.All, func(c api.Customer) form.Option {
		return form.Option{Value: itoa(c.ID), Label: c.Name}
	})
}

func supplierOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Suppliers.All, func(s api.Supplier) form.Option {
		return form.Option{Value: itoa(s.ID), Label: s.Name}
	})
}

func companyOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Companies.All, func(c api.Company) form.Option {
		return form.Option{Value: itoa(c.ID), Label: c.Name}
	})
}

var lineColumns = []screen.Column{
	{Title: "Product", Width: 28},
	{Title: "HSN", Width: 10},
	{Title: "Qty", Width: 8},
	{Title: "Rate", Width: 12},
	{Title: "Tax", Width: 10},
	{Title: "Total", Width: 12},
}

func lineRow(l api.LineItem) screen.Row {
	name := l.Product.Label()
	if name == "" {
		name = l.Description
	}
	return screen.Row{
		ID:    l.ID,
		Label: name,
		Cells: []string{
			name,
			l.HsnCode,
			l.Quantity.String(),
			format.Currency(l.UnitPrice),
			format.Currency(l.TaxValue()),
			format.Currency(l.Total),
		},
	}
}

func productOptions(svc *api.Services) screen.OptionsFunc {
	return lookup(svc.Products.All, func(p api.Product) form.Option {
		return form.Option{Value: itoa(p.ID), Label: p.Name}
	})
}

// rateValue renders an optional rate for editing; unset stays blank.
func rateValue(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func lineFields() form.Schema {
	return form.Schema{
		{Name: "productId", Label: "Product", Kind: form.Select, Required: true},
		{Name: "description", Label: "Description", Kind: form.Text, MaxLen: 255},
		{Name: "quantity", Label: "Quantity", Kind: form.Number, Required: true, Min: nonNegative},
		{Name: "unitPrice", Label: "Unit price", Kind: form.Number, Required: true, Min: nonNegative},
		{Name: "cgstRate", Label: "CGST %", Kind: form.Number, Min: nonNegative},
		{Name: "sgstRate", Label: "SGST %", Kind: form.Number, Min: nonNegative},
		{Name: "igstRate", Label: "IGST %", Kind: form.Number, Min: nonNegative},
	}
}

func lineValues(l api.LineItem) form.Values {
	return form.Values{
		"productId":   refID(l.Product),
		"description": l.Description,
		"quantity":    l.Quantity.String(),
		"unitPrice":   l.UnitPrice.String(),
		"cgstRate":    rateValue(l.CgstRate),
		"sgstRate":    rateValue(l.SgstRate),
		"igstRate":    rateValue(l.IgstRate),
	}
}

// lineScreen lists the line items of one header. Viewing follows the
// header's view permission and every line mutation needs its update permission.
func lineScreen(svc *api.Services, entity, noun, path string, lines *api.Lines[api.LineItem], invalidates ...query.Key) *screen.Definition {
	return screen.Define(screen.Spec[api.LineItem]{
		Entity:      entity + "-line",
		Noun:        "Line item",
		Title:       noun + " lines",
		Key:         linesKey(path),
		Invalidates: append([]query.Key{listKey(path)}, invalidates...),
		Columns:     lineColumns,
		Fields:      lineFields(),
		Options:     map[string]screen.OptionsFunc{"productId": productOptions(svc)},
		Row:         lineRow,
		Prefill:     lineValues,
		View:        lines.View,
		CreateLine:  lines.Create,
		UpdateLine:  lines.Update,
		DeleteLine:  lines.Delete,
		Perms: map[string]permission.ID{
			permission.View:   permission.For(entity, permission.View),
			permission.Create: permission.For(entity, permission.Update),
			permission.Update: permission.For(entity, permission.Update),
			permission.Delete: permission.For(entity, permission.Update),
		},
	})
}

// printable loads a header and its lines and lays them out.
func printable[H any](get func(context.Context, int64) (H, error), lines *api.Lines[api.LineItem], build func(H, []api.LineItem) *report.Document) func(context.Context, int64) (*report.Document, error) {
	return func(ctx context.Context, headerID int64) (*report.Document, error) {
		h, items, err := report.Load(ctx,
			func(ctx context.Context) (H, error) { return get(ctx, headerID) },
			func(ctx context.Context) ([]api.LineItem, error) { return lines.View(ctx, headerID) },
		)
		if err != nil {
			return nil, err
		}
		return build(h, items), nil
	}
}

// DocumentFunc builds one printable document by header id.
type DocumentFunc func(ctx context.Context, id int64) (*report.Document, error)

// NewDocuments maps the printable document names to their builders.
func NewDocuments(svc *api.Services) map[string]DocumentFunc {
	return map[string]DocumentFunc{
		"purchase-order":        printable(svc.PurchaseOrders.Get, svc.PurchaseOrderLines, report.PurchaseOrderDocument),
		"quotation":             printable(svc.Quotations.Get, svc.QuotationLines, report.QuotationDocument),
		"proforma-invoice":      printable(svc.ProformaInvoices.Get, svc.ProformaInvoiceLines, report.ProformaInvoiceDocument),
		"sales-invoice":         printable(svc.SalesInvoices.Get, svc.SalesInvoiceLines, report.SalesInvoiceDocument),
		"sales-invoice-summary": printable(svc.SalesInvoices.Get, svc.SalesInvoiceLines, report.SalesInvoiceSummary),
		"dispatch-challan":      printable(svc.DispatchChallans.Get, svc.DispatchChallanLines, report.DispatchChallanDocument),
		"stock-transfer":        printable(svc.StockTransfers.Get, svc.StockTransferLines, report.StockTransferDocument),
	}
}
