package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/api/apitest"
	"github.com/mikelcalvo/erp-console/internal/logger"
)

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }

type fixedCompany int64

func (c fixedCompany) Current() (int64, bool) { return int64(c), c != 0 }

func newServices(t *testing.T) (*apitest.Server, *api.Services) {
	t.Helper()
	srv := apitest.New(t)
	client := api.NewClient(srv.URL, 5*time.Second, staticToken("abc"), nil)
	return srv, api.NewServices(client, fixedCompany(7))
}

func TestResource_ListPaginatesAndScopes(t *testing.T) {
	srv, svc := newServices(t)
	for _, name := range []string{"Acme", "Bolt", "Crane"} {
		srv.Seed(api.PathCustomers, apitest.Record{"name": name})
	}

	page, err := svc.Customers.List(context.Background(), api.ListParams{PageNumber: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Crane", page.Items[0].Name)

	calls := srv.Calls(http.MethodGet, api.PathCustomers)
	require.Len(t, calls, 1)
	assert.Equal(t, "7", calls[0].Query.Get("companyId"))
	assert.Equal(t, "2", calls[0].Query.Get("pageNumber"))
	assert.Equal(t, "Bearer abc", calls[0].Header.Get("Authorization"))
	assert.NotEmpty(t, calls[0].Header.Get(api.RequestIDHeader))
}

func TestResource_ListFiltersSkipEmpty(t *testing.T) {
	srv, svc := newServices(t)
	srv.Seed(api.PathSuppliers, apitest.Record{"name": "Steel Works"}, apitest.Record{"name": "Paper Co"})

	page, err := svc.Suppliers.List(context.Background(), api.ListParams{
		PageNumber: 1,
		PageSize:   10,
		Filters:    api.Filters{"name": "steel", "email": ""},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Steel Works", page.Items[0].Name)

	q := srv.Calls(http.MethodGet, api.PathSuppliers)[0].Query
	_, sent := q["email"]
	assert.False(t, sent)
}

func TestResource_AllReturnsBareArray(t *testing.T) {
	srv, svc := newServices(t)
	srv.Seed(api.PathCurrencies, apitest.Record{"name": "Rupee", "code": "INR"})

	items, err := svc.Currencies.All(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "INR", items[0].Code)

	q := srv.Calls(http.MethodGet, api.PathCurrencies)[0].Query
	assert.Equal(t, "true", q.Get("all"))
	assert.Empty(t, q.Get("companyId"))
}

func TestResource_UpdateSendsIDInBody(t *testing.T) {
	srv, svc := newServices(t)
	srv.Seed(api.PathProducts, apitest.Record{"id": 5, "name": "Bolt"})

	_, err := svc.Products.Update(context.Background(), 5, api.Payload{"name": "Bolt M8"})
	require.NoError(t, err)

	calls := srv.Calls(http.MethodPut, api.PathProducts+"/5")
	require.Len(t, calls, 1)
	assert.EqualValues(t, 5, calls[0].Body["id"])
	assert.EqualValues(t, 7, calls[0].Body["companyId"])
	assert.Equal(t, "Bolt M8", srv.Records(api.PathProducts)[0]["name"])
}

func TestResource_CreateEchoesRecord(t *testing.T) {
	_, svc := newServices(t)

	got, err := svc.ProductCategories.Create(context.Background(), api.Payload{"name": "Fasteners"})
	require.NoError(t, err)
	assert.Equal(t, "Fasteners", got.Name)
	assert.NotZero(t, got.ID)
}

func TestResource_DeleteReferentialIntegrity(t *testing.T) {
	srv, svc := newServices(t)
	srv.Seed(api.PathCustomers, apitest.Record{"id": 3, "name": "Acme"})
	srv.Fail(http.MethodDelete, api.PathCustomers+"/3", http.StatusConflict,
		"update or delete on table \"customer\" violates FOREIGN KEY constraint")

	err := svc.Customers.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, api.IsReferentialIntegrity(err))
	assert.Equal(t, api.ReferencedMessage, api.UserMessage(err))
}

func TestClient_UnauthorizedFiresHook(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(http.MethodGet, api.PathRoles, http.StatusUnauthorized, "token expired")

	client := api.NewClient(srv.URL, time.Second, staticToken("abc"), nil)
	fired := 0
	client.OnUnauthorized = func() { fired++ }

	_, err := api.NewServices(client, nil).Roles.All(context.Background(), nil)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Equal(t, 1, fired)
	assert.Equal(t, "token expired", api.UserMessage(err))
}

func TestLines_ViewAndDelete(t *testing.T) {
	srv, svc := newServices(t)
	srv.SeedLines(api.PathDispatchChallans, 9,
		apitest.Record{"id": 1, "product": apitest.Record{"id": 4, "name": "Bolt"}, "quantity": "2", "unitPrice": "10.5", "total": "21"},
		apitest.Record{"id": 2, "product": apitest.Record{"id": 5, "name": "Nut"}, "quantity": 1, "unitPrice": 3, "total": 3},
	)

	lines, err := svc.DispatchChallanLines.View(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Bolt", lines[0].Product.Label())
	assert.True(t, lines[0].Total.Equal(decimal.NewFromInt(21)))

	require.NoError(t, svc.DispatchChallanLines.Delete(context.Background(), 9, 1))
	lines, err = svc.DispatchChallanLines.View(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ID)
}

func TestLines_CreateAndUpdate(t *testing.T) {
	srv, svc := newServices(t)
	srv.SeedLines(api.PathQuotations, 4, apitest.Record{"id": 1, "quantity": 1, "unitPrice": 5, "total": 5})

	created, err := svc.QuotationLines.Create(context.Background(), 4, api.Payload{"productId": 8, "quantity": 3, "unitPrice": "2.5"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Quantity.Equal(decimal.NewFromInt(3)))

	calls := srv.Calls(http.MethodPost, api.PathQuotations+"/4/items")
	require.Len(t, calls, 1)
	assert.EqualValues(t, 8, calls[0].Body["productId"])
	_, scoped := calls[0].Body["companyId"]
	assert.False(t, scoped)

	updated, err := svc.QuotationLines.Update(context.Background(), 4, 1, api.Payload{"quantity": 6})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID)
	assert.True(t, updated.Quantity.Equal(decimal.NewFromInt(6)))

	put := srv.Calls(http.MethodPut, api.PathQuotations+"/4/items/1")
	require.Len(t, put, 1)
	assert.EqualValues(t, 1, put[0].Body["id"])

	lines := srv.Lines(api.PathQuotations, 4)
	require.Len(t, lines, 2)
	assert.EqualValues(t, 6, lines[0]["quantity"])
}

func TestResource_CreateLogsUndecodableEcho(t *testing.T) {
	srv := apitest.New(t)
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug"}, &buf)
	svc := api.NewServices(api.NewClient(srv.URL, 5*time.Second, staticToken("abc"), log), fixedCompany(7))

	got, err := svc.ProductCategories.Create(context.Background(), api.Payload{"name": 42})
	require.NoError(t, err)
	assert.Zero(t, got.ID, "a record that does not decode is not half-filled")
	assert.Contains(t, buf.String(), "mutation response is not a record")
	assert.Contains(t, buf.String(), api.PathProductCategories)
}

func TestQuotation_Confirm(t *testing.T) {
	srv, svc := newServices(t)

	err := svc.Quotations.Confirm(context.Background(), 12, api.ConfirmQuotation{
		LineItemIDs:  []int64{1, 3},
		ExtraCharges: decimal.Zero,
	})
	require.NoError(t, err)

	calls := srv.Calls(http.MethodPost, api.PathQuotations+"/12/confirm")
	require.Len(t, calls, 1)
	assert.Equal(t, api.DefaultExtraChargesDescription, calls[0].Body["extraChargesDescription"])
	assert.Equal(t, float64(0), calls[0].Body["extraCharges"])
	assert.Len(t, srv.Records(api.PathProformaInvoices), 1)

	err = svc.Quotations.Confirm(context.Background(), 12, api.ConfirmQuotation{})
	assert.ErrorIs(t, err, api.ErrNoLinesSelected)
	assert.Len(t, srv.Calls(http.MethodPost, api.PathQuotations+"/12/confirm"), 1)
}

func TestClient_Login(t *testing.T) {
	srv := apitest.New(t)
	srv.Token = "issued"
	client := api.NewClient(srv.URL, time.Second, nil, nil)

	token, err := client.Login(context.Background(), "asha", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued", token)

	_, err = client.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestResource_Export(t *testing.T) {
	srv, svc := newServices(t)
	srv.Seed(api.PathCustomers, apitest.Record{"id": 1, "name": "Acme"})

	data, err := svc.Customers.Export(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Acme\n", string(data))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", api.UserMessage(nil))
	assert.Equal(t, "boom", api.UserMessage(errors.New("boom")))
	assert.Equal(t, api.ReferencedMessage, api.UserMessage(&api.Error{Status: 400, Message: "Row IS REFERENCED by invoice"}))
}
