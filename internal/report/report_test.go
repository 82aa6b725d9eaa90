package report

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/api"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func invoiceLines() []api.LineItem {
	return []api.LineItem{
		{
			ID:        1,
			Product:   &api.Ref{ID: 4, Name: "Bolt"},
			HsnCode:   "7318",
			Quantity:  dec("2"),
			UnitPrice: dec("100"),
			CgstValue: decimal.NewNullDecimal(dec("9")),
			SgstValue: decimal.NewNullDecimal(dec("9")),
			Total:     dec("218.25"),
		},
		{
			ID:        2,
			Product:   &api.Ref{ID: 5, Name: "Nut"},
			HsnCode:   "7318",
			Quantity:  dec("1"),
			UnitPrice: dec("50"),
			IgstValue: decimal.NewNullDecimal(dec("2.25")),
			Total:     dec("52.25"),
		},
	}
}

func totalOf(d *Document, label string) string {
	for _, f := range d.Totals {
		if f.Label == label {
			return f.Value
		}
	}
	return ""
}

func TestSalesInvoiceDocument_RoundsGrandTotalHalfUp(t *testing.T) {
	inv := api.SalesInvoice{Number: "INV-7", Date: "2024-03-05T00:00:00Z", Customer: &api.Ref{Name: "Acme"}}

	d := SalesInvoiceDocument(inv, invoiceLines())
	assert.Equal(t, "271", totalOf(d, "Grand total"))
	assert.Equal(t, "0.50", totalOf(d, "Round off"))
	assert.Equal(t, "20.25", totalOf(d, "Tax"))

	lines := invoiceLines()
	lines[1].Total = dec("52.24")
	d = SalesInvoiceDocument(inv, lines)
	assert.Equal(t, "270", totalOf(d, "Grand total"))
}

func TestSalesInvoiceSummary_GroupsByHsn(t *testing.T) {
	d := SalesInvoiceSummary(api.SalesInvoice{Number: "INV-7"}, invoiceLines())
	require.Len(t, d.Lines, 1)
	assert.Equal(t, []string{"7318", "250.25", "20.25", "270.50"}, d.Lines[0])
	assert.Equal(t, "271", totalOf(d, "Grand total"))
}

func TestRenderText(t *testing.T) {
	inv := api.SalesInvoice{Number: "INV-7", Date: "2024-03-05T00:00:00Z", Customer: &api.Ref{Name: "Acme"}}
	out := SalesInvoiceDocument(inv, invoiceLines()).RenderText(80)

	assert.Contains(t, out, "Tax Invoice  INV-7")
	assert.Contains(t, out, "05-03-2024")
	assert.Contains(t, out, "Bolt")
	assert.Contains(t, out, "Grand total  271")
	for _, l := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(l)), 80)
	}
}

func TestRenderText_NoLines(t *testing.T) {
	out := QuotationDocument(api.Quotation{Number: "Q-1"}, nil).RenderText(60)
	assert.Contains(t, out, "No line items")
}

func TestProformaInvoiceDocument_DefaultsChargesLabel(t *testing.T) {
	p := api.ProformaInvoice{Number: "PI-1", ExtraCharges: dec("100")}
	d := ProformaInvoiceDocument(p, invoiceLines())
	assert.Equal(t, "100", totalOf(d, api.DefaultExtraChargesDescription))
	assert.Equal(t, "370.50", totalOf(d, "Total"))
}

func TestLoad_Concurrent(t *testing.T) {
	h, lines, err := Load(context.Background(),
		func(context.Context) (api.Quotation, error) { return api.Quotation{Number: "Q-9"}, nil },
		func(context.Context) ([]api.LineItem, error) { return invoiceLines(), nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "Q-9", h.Number)
	assert.Len(t, lines, 2)

	boom := errors.New("lines unavailable")
	_, _, err = Load(context.Background(),
		func(context.Context) (api.Quotation, error) { return api.Quotation{}, nil },
		func(context.Context) ([]api.LineItem, error) { return nil, boom },
	)
	assert.ErrorIs(t, err, boom)
}

func TestPDFPrinter_PrintsAndRemovesTempFile(t *testing.T) {
	p := NewPDFPrinter("lp -d office", nil)
	p.TempDir = t.TempDir()

	var gotName string
	var gotArgs []string
	p.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		data, err := os.ReadFile(args[len(args)-1])
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "%PDF"))
		return nil, nil
	}

	doc := StockTransferDocument(api.StockTransfer{Number: "ST-1"}, invoiceLines())
	require.NoError(t, p.Print(context.Background(), doc))

	assert.Equal(t, "lp", gotName)
	require.Len(t, gotArgs, 3)
	assert.Equal(t, []string{"-d", "office"}, gotArgs[:2])
	_, err := os.Stat(gotArgs[2])
	assert.True(t, os.IsNotExist(err))
}

func TestPDFPrinter_CommandFailure(t *testing.T) {
	p := NewPDFPrinter("lp", nil)
	p.TempDir = t.TempDir()
	p.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("no default destination"), errors.New("exit status 1")
	}

	err := p.Print(context.Background(), DispatchChallanDocument(api.DispatchChallan{Number: "DC-1"}, nil))
	assert.ErrorContains(t, err, "print: lp")

	entries, err := os.ReadDir(p.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGridSizesFillTwelveColumns(t *testing.T) {
	d := SalesInvoiceDocument(api.SalesInvoice{}, invoiceLines())
	sum := 0
	for _, s := range gridSizes(d) {
		assert.GreaterOrEqual(t, s, 1)
		sum += s
	}
	assert.Equal(t, 12, sum)
}
