package report

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/format"
)

var lineColumns = []string{"#", "Product", "HSN", "Qty", "Rate", "Tax", "Total"}
var lineNumeric = []bool{true, false, false, true, true, true, true}

func lineRows(lines []api.LineItem) [][]string {
	rows := make([][]string, 0, len(lines))
	for i, l := range lines {
		name := l.Product.Label()
		if name == "" {
			name = l.Description
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			l.HsnCode,
			l.Quantity.String(),
			format.Currency(l.UnitPrice),
			format.Currency(l.TaxValue()),
			format.Currency(l.Total),
		})
	}
	return rows
}

func linesTotal(lines []api.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

func linesTax(lines []api.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.TaxValue())
	}
	return sum
}

func newLinesDocument(title, number string, header []Field, lines []api.LineItem) *Document {
	return &Document{
		Title:   title,
		Number:  number,
		Header:  header,
		Columns: lineColumns,
		Numeric: lineNumeric,
		Lines:   lineRows(lines),
	}
}

// PurchaseOrderDocument lays out a purchase order.
func PurchaseOrderDocument(po api.PurchaseOrder, lines []api.LineItem) *Document {
	d := newLinesDocument("Purchase Order", po.Number, []Field{
		{Label: "Supplier", Value: po.Supplier.Label()},
		{Label: "Date", Value: format.Date(po.Date)},
		{Label: "Delivery date", Value: format.Date(po.DeliveryDate)},
		{Label: "Currency", Value: po.Currency.Label()},
	}, lines)
	d.Totals = []Field{
		{Label: "Tax", Value: format.Currency(linesTax(lines))},
		{Label: "Total", Value: format.Currency(linesTotal(lines))},
	}
	d.Footer = po.Remarks
	return d
}

// QuotationDocument lays out a quotation.
func QuotationDocument(q api.Quotation, lines []api.LineItem) *Document {
	d := newLinesDocument("Quotation", q.Number, []Field{
		{Label: "Customer", Value: q.Customer.Label()},
		{Label: "Date", Value: format.Date(q.Date)},
		{Label: "Valid till", Value: format.Date(q.ValidTill)},
		{Label: "Status", Value: q.Status},
	}, lines)
	d.Totals = []Field{
		{Label: "Tax", Value: format.Currency(linesTax(lines))},
		{Label: "Total", Value: format.Currency(linesTotal(lines))},
	}
	return d
}

// ProformaInvoiceDocument lays out a proforma invoice including its extra charges.
func ProformaInvoiceDocument(p api.ProformaInvoice, lines []api.LineItem) *Document {
	d := newLinesDocument("Proforma Invoice", p.Number, []Field{
		{Label: "Customer", Value: p.Customer.Label()},
		{Label: "Date", Value: format.Date(p.Date)},
		{Label: "Quotation", Value: p.Quotation.Label()},
	}, lines)
	desc := p.ExtraChargesDescription
	if desc == "" {
		desc = api.DefaultExtraChargesDescription
	}
	d.Totals = []Field{
		{Label: "Tax", Value: format.Currency(linesTax(lines))},
		{Label: desc, Value: format.Currency(p.ExtraCharges)},
		{Label: "Total", Value: format.Currency(linesTotal(lines).Add(p.ExtraCharges))},
	}
	return d
}

func invoiceHeader(inv api.SalesInvoice) []Field {
	return []Field{
		{Label: "Customer", Value: inv.Customer.Label()},
		{Label: "Date", Value: format.Date(inv.Date)},
		{Label: "Place of supply", Value: inv.PlaceOfSupply},
		{Label: "Currency", Value: inv.Currency.Label()},
	}
}

func invoiceTotals(taxable, tax, total decimal.Decimal) []Field {
	rounded := format.RoundHalfUp(total)
	return []Field{
		{Label: "Taxable value", Value: format.Currency(taxable)},
		{Label: "Tax", Value: format.Currency(tax)},
		{Label: "Round off", Value: format.Currency(rounded.Sub(total))},
		{Label: "Grand total", Value: format.Currency(rounded)},
	}
}

// SalesInvoiceDocument lays out a tax invoice. The grand total is rounded half up to whole units.
func SalesInvoiceDocument(inv api.SalesInvoice, lines []api.LineItem) *Document {
	d := newLinesDocument("Tax Invoice", inv.Number, invoiceHeader(inv), lines)
	total := linesTotal(lines)
	tax := linesTax(lines)
	d.Totals = invoiceTotals(total.Sub(tax), tax, total)
	return d
}

// SalesInvoiceSummary lays out the HSN-wise tax summary of an invoice. Its
// grand total is rounded the same way as SalesInvoiceDocument.
func SalesInvoiceSummary(inv api.SalesInvoice, lines []api.LineItem) *Document {
	type bucket struct {
		taxable, tax, total decimal.Decimal
	}
	buckets := map[string]*bucket{}
	for _, l := range lines {
		b, ok := buckets[l.HsnCode]
		if !ok {
			b = &bucket{}
			buckets[l.HsnCode] = b
		}
		tax := l.TaxValue()
		b.tax = b.tax.Add(tax)
		b.total = b.total.Add(l.Total)
		b.taxable = b.taxable.Add(l.Total.Sub(tax))
	}
	codes := make([]string, 0, len(buckets))
	for code := range buckets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	d := &Document{
		Title:   "Tax Summary",
		Number:  inv.Number,
		Header:  invoiceHeader(inv),
		Columns: []string{"HSN", "Taxable value", "Tax", "Total"},
		Numeric: []bool{false, true, true, true},
	}
	taxable, tax, total := decimal.Zero, decimal.Zero, decimal.Zero
	for _, code := range codes {
		b := buckets[code]
		d.Lines = append(d.Lines, []string{code, format.Currency(b.taxable), format.Currency(b.tax), format.Currency(b.total)})
		taxable, tax, total = taxable.Add(b.taxable), tax.Add(b.tax), total.Add(b.total)
	}
	d.Totals = invoiceTotals(taxable, tax, total)
	return d
}

// DispatchChallanDocument lays out a delivery challan. Challans carry no prices.
func DispatchChallanDocument(c api.DispatchChallan, lines []api.LineItem) *Document {
	d := &Document{
		Title:  "Dispatch Challan",
		Number: c.Number,
		Header: []Field{
			{Label: "Customer", Value: c.Customer.Label()},
			{Label: "Date", Value: format.Date(c.Date)},
			{Label: "Invoice", Value: c.SalesInvoice.Label()},
			{Label: "Vehicle", Value: c.VehicleNo},
			{Label: "Transporter", Value: c.Transporter},
		},
		Columns: []string{"#", "Product", "HSN", "Qty"},
		Numeric: []bool{true, false, false, true},
		Footer:  c.Remarks,
	}
	qty := decimal.Zero
	for i, l := range lines {
		d.Lines = append(d.Lines, []string{strconv.Itoa(i + 1), l.Product.Label(), l.HsnCode, l.Quantity.String()})
		qty = qty.Add(l.Quantity)
	}
	d.Totals = []Field{{Label: "Total quantity", Value: qty.String()}}
	return d
}

// StockTransferDocument lays out a stock transfer note.
func StockTransferDocument(s api.StockTransfer, lines []api.LineItem) *Document {
	d := &Document{
		Title:  "Stock Transfer",
		Number: s.Number,
		Header: []Field{
			{Label: "From", Value: s.FromCompany.Label()},
			{Label: "To", Value: s.ToCompany.Label()},
			{Label: "Date", Value: format.Date(s.Date)},
		},
		Columns: []string{"#", "Product", "Qty"},
		Numeric: []bool{true, false, true},
		Footer:  s.Remarks,
	}
	for i, l := range lines {
		d.Lines = append(d.Lines, []string{strconv.Itoa(i + 1), l.Product.Label(), l.Quantity.String()})
	}
	return d
}
