package erp

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/format"
	"github.com/mikelcalvo/erp-console/internal/query"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

func masterScreens(svc *api.Services) []*screen.Definition {
	return []*screen.Definition{
		companyScreen(svc),
		customerScreen(svc),
		supplierScreen(svc),
		productScreen(svc),
		productCategoryScreen(svc),
		currencyScreen(svc),
		hsnScreen(svc),
		roleScreen(svc),
		userScreen(svc),
	}
}

// addressFields are shared by companies and parties.
var addressFields = form.Schema{
	{Name: "address", Label: "Address", Kind: form.Text, MaxLen: 250},
	{Name: "countryId", Label: "Country", Kind: form.Select},
	{Name: "stateId", Label: "State", Kind: form.Select, DependsOn: "countryId"},
}

func addressOptions(svc *api.Services) map[string]screen.OptionsFunc {
	return map[string]screen.OptionsFunc{
		"countryId": countryOptions(svc),
		"stateId":   stateOptions(svc),
	}
}

func withAddress(fields form.Schema) form.Schema {
	out := append(form.Schema{}, fields...)
	return append(out, addressFields...)
}

func companyScreen(svc *api.Services) *screen.Definition {
	opts := addressOptions(svc)
	opts["currencyId"] = currencyOptions(svc)

	return screen.Define(screen.Spec[api.Company]{
		Entity:    "company",
		Noun:      "Company",
		Title:     "Companies",
		Key:       listKey(api.PathCompanies),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "Name", Width: 28},
			{Title: "GSTIN", Width: 16},
			{Title: "Email", Width: 24},
			{Title: "Phone", Width: 14},
			{Title: "State", Width: 16},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}},
		Fields: append(withAddress(form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "email", Label: "Email", Kind: form.Email},
			{Name: "phone", Label: "Phone", Kind: form.Text, MaxLen: 20},
			{Name: "gstin", Label: "GSTIN", Kind: form.Text, MaxLen: 15},
		}),
			form.Field{Name: "currencyId", Label: "Currency", Kind: form.Select},
			form.Field{Name: "bankName", Label: "Bank", Kind: form.Text, MaxLen: 100},
			form.Field{Name: "accountNo", Label: "Account no", Kind: form.Text, MaxLen: 30},
			form.Field{Name: "ifscCode", Label: "IFSC", Kind: form.Text, MaxLen: 11},
		),
		Options: opts,
		Row: func(c api.Company) screen.Row {
			return screen.Row{ID: c.ID, Label: c.Name, Cells: []string{c.Name, c.Gstin, c.Email, c.Phone, c.State.Label()}}
		},
		Prefill: func(c api.Company) form.Values {
			return form.Values{
				"name": c.Name, "email": c.Email, "phone": c.Phone, "gstin": c.Gstin,
				"address": c.Address, "countryId": refID(c.Country), "stateId": refID(c.State),
				"currencyId": refID(c.Currency), "bankName": c.BankName, "accountNo": c.AccountNo, "ifscCode": c.IfscCode,
			}
		},
		List:   svc.Companies.List,
		Create: svc.Companies.Create,
		Update: svc.Companies.Update,
		Delete: svc.Companies.Delete,
		Export: svc.Companies.Export,
	})
}

func customerScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.Customer]{
		Entity:    "customer",
		Noun:      "Customer",
		Title:     "Customers",
		Key:       listKey(api.PathCustomers),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "Name", Width: 26},
			{Title: "Contact", Width: 18},
			{Title: "Email", Width: 24},
			{Title: "Phone", Width: 14},
			{Title: "City", Width: 14},
			{Title: "GSTIN", Width: 16},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}, {Name: "city", Label: "City"}},
		Fields: append(withAddress(form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "contactPerson", Label: "Contact person", Kind: form.Text, MaxLen: 100},
			{Name: "email", Label: "Email", Kind: form.Email},
			{Name: "phone", Label: "Phone", Kind: form.Text, MaxLen: 20},
			{Name: "gstin", Label: "GSTIN", Kind: form.Text, MaxLen: 15},
		}),
			form.Field{Name: "city", Label: "City", Kind: form.Text, MaxLen: 60},
		),
		Options: addressOptions(svc),
		Row: func(c api.Customer) screen.Row {
			return screen.Row{ID: c.ID, Label: c.Name, Cells: []string{c.Name, c.ContactPerson, c.Email, c.Phone, c.City, c.Gstin}}
		},
		Prefill: func(c api.Customer) form.Values {
			return form.Values{
				"name": c.Name, "contactPerson": c.ContactPerson, "email": c.Email, "phone": c.Phone,
				"gstin": c.Gstin, "address": c.Address, "city": c.City,
				"countryId": refID(c.Country), "stateId": refID(c.State),
			}
		},
		List:   svc.Customers.List,
		Create: svc.Customers.Create,
		Update: svc.Customers.Update,
		Delete: svc.Customers.Delete,
		Export: svc.Customers.Export,
	})
}

func supplierScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.Supplier]{
		Entity:    "supplier",
		Noun:      "Supplier",
		Title:     "Suppliers",
		Key:       listKey(api.PathSuppliers),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "Name", Width: 26},
			{Title: "Contact", Width: 18},
			{Title: "Email", Width: 24},
			{Title: "Phone", Width: 14},
			{Title: "GSTIN", Width: 16},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}},
		Fields: withAddress(form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "contactPerson", Label: "Contact person", Kind: form.Text, MaxLen: 100},
			{Name: "email", Label: "Email", Kind: form.Email},
			{Name: "phone", Label: "Phone", Kind: form.Text, MaxLen: 20},
			{Name: "gstin", Label: "GSTIN", Kind: form.Text, MaxLen: 15},
		}),
		Options: addressOptions(svc),
		Row: func(s api.Supplier) screen.Row {
			return screen.Row{ID: s.ID, Label: s.Name, Cells: []string{s.Name, s.ContactPerson, s.Email, s.Phone, s.Gstin}}
		},
		Prefill: func(s api.Supplier) form.Values {
			return form.Values{
				"name": s.Name, "contactPerson": s.ContactPerson, "email": s.Email, "phone": s.Phone,
				"gstin": s.Gstin, "address": s.Address, "countryId": refID(s.Country), "stateId": refID(s.State),
			}
		},
		List:   svc.Suppliers.List,
		Create: svc.Suppliers.Create,
		Update: svc.Suppliers.Update,
		Delete: svc.Suppliers.Delete,
		Export: svc.Suppliers.Export,
	})
}

func productScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.Product]{
		Entity:    "product",
		Noun:      "Product",
		Title:     "Products",
		Key:       listKey(api.PathProducts),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "Code", Width: 12},
			{Title: "Name", Width: 26},
			{Title: "Category", Width: 16},
			{Title: "HSN", Width: 10},
			{Title: "Unit", Width: 6},
			{Title: "Price", Width: 12},
			{Title: "Stock", Width: 8},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}, {Name: "code", Label: "Code"}},
		Fields: form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "code", Label: "Code", Kind: form.Text, MaxLen: 30},
			{Name: "unit", Label: "Unit", Kind: form.Text, MaxLen: 10, Default: "Nos"},
			{Name: "productCategoryId", Label: "Category", Kind: form.Select, Required: true},
			{Name: "hsnConfigurationId", Label: "HSN", Kind: form.Select},
			{Name: "price", Label: "Price", Kind: form.Number, Required: true, Min: nonNegative},
			{Name: "description", Label: "Description", Kind: form.Text, MaxLen: 250},
		},
		Options: map[string]screen.OptionsFunc{
			"productCategoryId": lookup(svc.ProductCategories.All, func(c api.ProductCategory) form.Option {
				return form.Option{Value: itoa(c.ID), Label: c.Name}
			}),
			"hsnConfigurationId": lookup(svc.HsnConfigurations.All, func(h api.HsnConfiguration) form.Option {
				return form.Option{Value: itoa(h.ID), Label: h.HsnCode}
			}),
		},
		Row: func(p api.Product) screen.Row {
			return screen.Row{ID: p.ID, Label: p.Name, Cells: []string{
				p.Code, p.Name, p.Category.Label(), p.Hsn.Label(), p.Unit, format.Currency(p.Price), p.Stock.String(),
			}}
		},
		Prefill: func(p api.Product) form.Values {
			return form.Values{
				"name": p.Name, "code": p.Code, "unit": p.Unit, "description": p.Description,
				"productCategoryId": refID(p.Category), "hsnConfigurationId": refID(p.Hsn), "price": p.Price.String(),
			}
		},
		List:   svc.Products.List,
		Create: svc.Products.Create,
		Update: svc.Products.Update,
		Delete: svc.Products.Delete,
		Export: svc.Products.Export,
	})
}

func productCategoryScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.ProductCategory]{
		Entity: "product-category",
		Noun:   "Product category",
		Title:  "Product Categories",
		Key:    listKey(api.PathProductCategories),
		// Products show their category name.
		Invalidates: []query.Key{listKey(api.PathProducts)},
		Columns: []screen.Column{
			{Title: "Name", Width: 28},
			{Title: "Description", Width: 48},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}},
		Fields: form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "description", Label: "Description", Kind: form.Text, MaxLen: 250},
		},
		Row: func(c api.ProductCategory) screen.Row {
			return screen.Row{ID: c.ID, Label: c.Name, Cells: []string{c.Name, c.Description}}
		},
		Prefill: func(c api.ProductCategory) form.Values {
			return form.Values{"name": c.Name, "description": c.Description}
		},
		All:    svc.ProductCategories.All,
		Create: svc.ProductCategories.Create,
		Update: svc.ProductCategories.Update,
		Delete: svc.ProductCategories.Delete,
	})
}

func currencyScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.Currency]{
		Entity: "currency",
		Noun:   "Currency",
		Title:  "Currencies",
		Key:    listKey(api.PathCurrencies),
		Columns: []screen.Column{
			{Title: "Code", Width: 6},
			{Title: "Name", Width: 28},
			{Title: "Symbol", Width: 6},
		},
		Fields: form.Schema{
			{Name: "code", Label: "Code", Kind: form.Text, Required: true, MaxLen: 3},
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 60},
			{Name: "symbol", Label: "Symbol", Kind: form.Text, MaxLen: 4},
		},
		Row: func(c api.Currency) screen.Row {
			return screen.Row{ID: c.ID, Label: c.Code, Cells: []string{c.Code, c.Name, c.Symbol}}
		},
		Prefill: func(c api.Currency) form.Values {
			return form.Values{"code": c.Code, "name": c.Name, "symbol": c.Symbol}
		},
		All:    svc.Currencies.All,
		Create: svc.Currencies.Create,
		Update: svc.Currencies.Update,
		Delete: svc.Currencies.Delete,
	})
}

func rate(d decimal.Decimal) string {
	return d.String() + "%"
}

func hsnScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.HsnConfiguration]{
		Entity:    "hsn-configuration",
		Noun:      "HSN code",
		Title:     "HSN Configurations",
		Key:       listKey(api.PathHsnConfigurations),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "HSN", Width: 10},
			{Title: "Description", Width: 36},
			{Title: "CGST", Width: 7},
			{Title: "SGST", Width: 7},
			{Title: "IGST", Width: 7},
		},
		Filters: []screen.Filter{{Name: "hsnCode", Label: "HSN"}},
		Fields: form.Schema{
			{Name: "hsnCode", Label: "HSN code", Kind: form.Text, Required: true, MaxLen: 8},
			{Name: "description", Label: "Description", Kind: form.Text, MaxLen: 250},
			{Name: "cgstRate", Label: "CGST %", Kind: form.Number, Required: true, Min: nonNegative},
			{Name: "sgstRate", Label: "SGST %", Kind: form.Number, Required: true, Min: nonNegative},
			{Name: "igstRate", Label: "IGST %", Kind: form.Number, Required: true, Min: nonNegative},
		},
		Row: func(h api.HsnConfiguration) screen.Row {
			return screen.Row{ID: h.ID, Label: h.HsnCode, Cells: []string{
				h.HsnCode, h.Description, rate(h.CgstRate), rate(h.SgstRate), rate(h.IgstRate),
			}}
		},
		Prefill: func(h api.HsnConfiguration) form.Values {
			return form.Values{
				"hsnCode": h.HsnCode, "description": h.Description,
				"cgstRate": h.CgstRate.String(), "sgstRate": h.SgstRate.String(), "igstRate": h.IgstRate.String(),
			}
		},
		List:   svc.HsnConfigurations.List,
		Create: svc.HsnConfigurations.Create,
		Update: svc.HsnConfigurations.Update,
		Delete: svc.HsnConfigurations.Delete,
	})
}

func roleScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.Role]{
		Entity: "role",
		Noun:   "Role",
		Title:  "Roles",
		Key:    listKey(api.PathRoles),
		Columns: []screen.Column{
			{Title: "Name", Width: 24},
			{Title: "Description", Width: 40},
			{Title: "Permissions", Width: 11},
		},
		Fields: form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 60},
			{Name: "description", Label: "Description", Kind: form.Text, MaxLen: 250},
		},
		Row: func(r api.Role) screen.Row {
			return screen.Row{ID: r.ID, Label: r.Name, Cells: []string{r.Name, r.Description, strconv.Itoa(len(r.Permissions))}}
		},
		Prefill: func(r api.Role) form.Values {
			return form.Values{"name": r.Name, "description": r.Description}
		},
		All:    svc.Roles.All,
		Create: svc.Roles.Create,
		Update: svc.Roles.Update,
		Delete: svc.Roles.Delete,
	})
}

func userScreen(svc *api.Services) *screen.Definition {
	return screen.Define(screen.Spec[api.User]{
		Entity:    "user",
		Noun:      "User",
		Title:     "Users",
		Key:       listKey(api.PathUsers),
		Paginated: true,
		Columns: []screen.Column{
			{Title: "Name", Width: 24},
			{Title: "Username", Width: 16},
			{Title: "Email", Width: 26},
			{Title: "Role", Width: 14},
			{Title: "Active", Width: 6},
		},
		Filters: []screen.Filter{{Name: "name", Label: "Name"}, {Name: "username", Label: "Username"}},
		Fields: form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true, MaxLen: 100},
			{Name: "username", Label: "Username", Kind: form.Text, Required: true, MaxLen: 40},
			{Name: "email", Label: "Email", Kind: form.Email, Required: true},
			// Left blank on edit to keep the current password.
			{Name: "password", Label: "Password", Kind: form.Secret, MaxLen: 72},
			{Name: "roleId", Label: "Role", Kind: form.Select, Required: true},
		},
		Options: map[string]screen.OptionsFunc{
			"roleId": lookup(svc.Roles.All, func(r api.Role) form.Option {
				return form.Option{Value: itoa(r.ID), Label: r.Name}
			}),
		},
		Row: func(u api.User) screen.Row {
			active := "no"
			if u.Active {
				active = "yes"
			}
			return screen.Row{ID: u.ID, Label: u.Username, Cells: []string{u.Name, u.Username, u.Email, u.Role.Label(), active}}
		},
		Prefill: func(u api.User) form.Values {
			return form.Values{"name": u.Name, "username": u.Username, "email": u.Email, "roleId": refID(u.Role)}
		},
		List:   svc.Users.List,
		Create: svc.Users.Create,
		Update: svc.Users.Update,
		Delete: svc.Users.Delete,
	})
}
