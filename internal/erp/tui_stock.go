package erp

import (
	"context"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

func stockScreens(svc *api.Services) []*screen.Definition {
	return []*screen.Definition{
		dispatchChallanScreen(svc),
		stockTransferScreen(svc),
	}
}

func dispatchChallanScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.DispatchChallans.Get, svc.DispatchChallanLines, report.DispatchChallanDocument)

	return screen.Define(screen.Spec[api.DispatchChallan]{
		Entity:    "dispatch-challan",
		Noun:      "Dispatch challan",
		Title:     "Dispatch Challans",
		Key:       listKey(api.PathDispatchChallans),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "Customer", Width: 24},
			screen.Column{Title: "Invoice", Width: 14},
			screen.Column{Title: "Vehicle", Width: 12},
			screen.Column{Title: "Transporter", Width: 18},
		),
		Filters: []screen.Filter{{Name: "challanNo", Label: "Number"}, {Name: "customer", Label: "Customer"}},
		Fields: form.Schema{
			{Name: "challanDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "customerId", Label: "Customer", Kind: form.Select, Required: true},
			{Name: "vehicleNo", Label: "Vehicle no", Kind: form.Text, MaxLen: 20},
			{Name: "transporter", Label: "Transporter", Kind: form.Text, MaxLen: 100},
			{Name: "remarks", Label: "Remarks", Kind: form.Text, MaxLen: 250},
		},
		Options: map[string]screen.OptionsFunc{"customerId": customerOptions(svc)},
		Row: func(c api.DispatchChallan) screen.Row {
			return screen.Row{ID: c.ID, Label: c.Number, Cells: documentCells(c.Number, c.Date,
				c.Customer.Label(), c.SalesInvoice.Label(), c.VehicleNo, c.Transporter)}
		},
		Prefill: func(c api.DispatchChallan) form.Values {
			return form.Values{
				"challanDate": dateValue(c.Date), "customerId": refID(c.Customer),
				"vehicleNo": c.VehicleNo, "transporter": c.Transporter, "remarks": c.Remarks,
			}
		},
		List:   svc.DispatchChallans.List,
		Create: svc.DispatchChallans.Create,
		Update: svc.DispatchChallans.Update,
		Delete: svc.DispatchChallans.Delete,
		Export: svc.DispatchChallans.Export,
		Report: func(ctx context.Context, c api.DispatchChallan) (*report.Document, error) {
			return build(ctx, c.ID)
		},
		// A dispatched line moves stock whenever it changes.
		Lines: lineScreen(svc, "dispatch-challan", "Dispatch challan", api.PathDispatchChallans, svc.DispatchChallanLines,
			listKey(api.PathProducts)),
	})
}

func stockTransferScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.StockTransfers.Get, svc.StockTransferLines, report.StockTransferDocument)
	companies := companyOptions(svc)

	return screen.Define(screen.Spec[api.StockTransfer]{
		Entity:    "stock-transfer",
		Noun:      "Stock transfer",
		Title:     "Stock Transfers",
		Key:       listKey(api.PathStockTransfers),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "From", Width: 22},
			screen.Column{Title: "To", Width: 22},
			screen.Column{Title: "Remarks", Width: 24},
		),
		Filters: []screen.Filter{{Name: "transferNo", Label: "Number"}},
		Fields: form.Schema{
			{Name: "transferDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "fromCompanyId", Label: "From", Kind: form.Select, Required: true},
			{Name: "toCompanyId", Label: "To", Kind: form.Select, Required: true},
			{Name: "remarks", Label: "Remarks", Kind: form.Text, MaxLen: 250},
		},
		Options: map[string]screen.OptionsFunc{
			"fromCompanyId": companies,
			"toCompanyId":   companies,
		},
		Row: func(s api.StockTransfer) screen.Row {
			return screen.Row{ID: s.ID, Label: s.Number, Cells: documentCells(s.Number, s.Date,
				s.FromCompany.Label(), s.ToCompany.Label(), s.Remarks)}
		},
		Prefill: func(s api.StockTransfer) form.Values {
			return form.Values{
				"transferDate": dateValue(s.Date), "fromCompanyId": refID(s.FromCompany),
				"toCompanyId": refID(s.ToCompany), "remarks": s.Remarks,
			}
		},
		List:   svc.StockTransfers.List,
		Create: svc.StockTransfers.Create,
		Update: svc.StockTransfers.Update,
		Delete: svc.StockTransfers.Delete,
		Export: svc.StockTransfers.Export,
		Report: func(ctx context.Context, s api.StockTransfer) (*report.Document, error) {
			return build(ctx, s.ID)
		},
		Lines: lineScreen(svc, "stock-transfer", "Stock transfer", api.PathStockTransfers, svc.StockTransferLines,
			listKey(api.PathProducts)),
	})
}
