package erp

import (
	"context"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/format"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

func purchasingScreens(svc *api.Services) []*screen.Definition {
	return []*screen.Definition{purchaseOrderScreen(svc)}
}

func purchaseOrderScreen(svc *api.Services) *screen.Definition {
	build := printable(svc.PurchaseOrders.Get, svc.PurchaseOrderLines, report.PurchaseOrderDocument)

	return screen.Define(screen.Spec[api.PurchaseOrder]{
		Entity:    "purchase-order",
		Noun:      "Purchase order",
		Title:     "Purchase Orders",
		Key:       listKey(api.PathPurchaseOrders),
		Paginated: true,
		Columns: append(append([]screen.Column{}, documentColumns...),
			screen.Column{Title: "Supplier", Width: 24},
			screen.Column{Title: "Delivery", Width: 10},
			screen.Column{Title: "Currency", Width: 8},
			screen.Column{Title: "Total", Width: 14},
		),
		Filters: []screen.Filter{{Name: "purchaseOrderNo", Label: "Number"}, {Name: "supplier", Label: "Supplier"}},
		Fields: form.Schema{
			{Name: "purchaseOrderDate", Label: "Date", Kind: form.Date, Required: true},
			{Name: "supplierId", Label: "Supplier", Kind: form.Select, Required: true},
			{Name: "currencyId", Label: "Currency", Kind: form.Select},
			{Name: "deliveryDate", Label: "Delivery date", Kind: form.Date},
			{Name: "remarks", Label: "Remarks", Kind: form.Text, MaxLen: 250},
		},
		Options: map[string]screen.OptionsFunc{
			"supplierId": supplierOptions(svc),
			"currencyId": currencyOptions(svc),
		},
		Row: func(po api.PurchaseOrder) screen.Row {
			return screen.Row{ID: po.ID, Label: po.Number, Cells: documentCells(po.Number, po.Date,
				po.Supplier.Label(), format.Date(po.DeliveryDate), po.Currency.Label(), format.Currency(po.Total))}
		},
		Prefill: func(po api.PurchaseOrder) form.Values {
			return form.Values{
				"purchaseOrderDate": dateValue(po.Date), "supplierId": refID(po.Supplier),
				"currencyId": refID(po.Currency), "deliveryDate": dateValue(po.DeliveryDate), "remarks": po.Remarks,
			}
		},
		List:   svc.PurchaseOrders.List,
		Create: svc.PurchaseOrders.Create,
		Update: svc.PurchaseOrders.Update,
		Delete: svc.PurchaseOrders.Delete,
		Export: svc.PurchaseOrders.Export,
		Report: func(ctx context.Context, po api.PurchaseOrder) (*report.Document, error) {
			return build(ctx, po.ID)
		},
		// Receiving against an order moves stock.
		Lines: lineScreen(svc, "purchase-order", "Purchase order", api.PathPurchaseOrders, svc.PurchaseOrderLines,
			listKey(api.PathProducts)),
	})
}
