package api

// Collection paths on the backend.
const (
	PathCompanies         = "companies"
	PathCustomers         = "customers"
	PathSuppliers         = "suppliers"
	PathProducts          = "products"
	PathProductCategories = "product-categories"
	PathCurrencies        = "currencies"
	PathHsnConfigurations = "hsn-configurations"
	PathRoles             = "roles"
	PathUsers             = "users"
	PathCountries         = "countries"
	PathStates            = "states"
	PathPurchaseOrders    = "purchase-orders"
	PathQuotations        = "quotations"
	PathProformaInvoices  = "proforma-invoices"
	PathSalesInvoices     = "sales-invoices"
	PathDispatchChallans  = "dispatch-challans"
	PathStockTransfers    = "stock-transfers"
)

// Services binds every backend collection the console uses.
type Services struct {
	Client *Client

	Companies         *Resource[Company]
	Customers         *Resource[Customer]
	Suppliers         *Resource[Supplier]
	Products          *Resource[Product]
	ProductCategories *Resource[ProductCategory]
	Currencies        *Resource[Currency]
	HsnConfigurations *Resource[HsnConfiguration]
	Roles             *Resource[Role]
	Users             *Resource[User]
	Countries         *Resource[Country]
	States            *Resource[State]

	PurchaseOrders   *Resource[PurchaseOrder]
	Quotations       *Resource[Quotation]
	ProformaInvoices *Resource[ProformaInvoice]
	SalesInvoices    *Resource[SalesInvoice]
	DispatchChallans *Resource[DispatchChallan]
	StockTransfers   *Resource[StockTransfer]

	PurchaseOrderLines   *Lines[LineItem]
	QuotationLines       *Lines[LineItem]
	ProformaInvoiceLines *Lines[LineItem]
	SalesInvoiceLines    *Lines[LineItem]
	DispatchChallanLines *Lines[LineItem]
	StockTransferLines   *Lines[LineItem]
}

// NewServices binds all collections. Transactional and party collections are company-scoped.
func NewServices(c *Client, company CompanyScope) *Services {
	return &Services{
		Client: c,

		Companies:         NewResource[Company](c, PathCompanies, nil),
		Customers:         NewResource[Customer](c, PathCustomers, company),
		Suppliers:         NewResource[Supplier](c, PathSuppliers, company),
		Products:          NewResource[Product](c, PathProducts, company),
		ProductCategories: NewResource[ProductCategory](c, PathProductCategories, company),
		Currencies:        NewResource[Currency](c, PathCurrencies, nil),
		HsnConfigurations: NewResource[HsnConfiguration](c, PathHsnConfigurations, nil),
		Roles:             NewResource[Role](c, PathRoles, nil),
		Users:             NewResource[User](c, PathUsers, nil),
		Countries:         NewResource[Country](c, PathCountries, nil),
		States:            NewResource[State](c, PathStates, nil),

		PurchaseOrders:   NewResource[PurchaseOrder](c, PathPurchaseOrders, company),
		Quotations:       NewResource[Quotation](c, PathQuotations, company),
		ProformaInvoices: NewResource[ProformaInvoice](c, PathProformaInvoices, company),
		SalesInvoices:    NewResource[SalesInvoice](c, PathSalesInvoices, company),
		DispatchChallans: NewResource[DispatchChallan](c, PathDispatchChallans, company),
		StockTransfers:   NewResource[StockTransfer](c, PathStockTransfers, company),

		PurchaseOrderLines:   NewLines[LineItem](c, PathPurchaseOrders),
		QuotationLines:       NewLines[LineItem](c, PathQuotations),
		ProformaInvoiceLines: NewLines[LineItem](c, PathProformaInvoices),
		SalesInvoiceLines:    NewLines[LineItem](c, PathSalesInvoices),
		DispatchChallanLines: NewLines[LineItem](c, PathDispatchChallans),
		StockTransferLines:   NewLines[LineItem](c, PathStockTransfers),
	}
}
