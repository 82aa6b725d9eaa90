package form

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerSchema() Schema {
	return Schema{
		{Name: "name", Label: "Name", Kind: Text, Required: true, MaxLen: 10},
		{Name: "email", Label: "Email", Kind: Email},
		{Name: "creditLimit", Label: "Credit limit", Kind: Number, Min: decimal.NewNullDecimal(decimal.Zero)},
		{Name: "since", Label: "Since", Kind: Date},
		{Name: "countryId", Label: "Country", Kind: Select, Required: true},
		{Name: "stateId", Label: "State", Kind: Select, DependsOn: "countryId"},
		{Name: "cityId", Label: "City", Kind: Select, DependsOn: "stateId"},
		{Name: "seats", Label: "Seats", Kind: Integer, Default: "1"},
	}
}

func TestSchema_Validate(t *testing.T) {
	s := customerSchema()

	errs := s.Validate(Values{
		"name":        "A very long customer name",
		"email":       "not-an-email",
		"creditLimit": "-5",
		"since":       "05-03-2024",
		"seats":       "1.5",
	}, nil)

	require.NotNil(t, errs)
	assert.Contains(t, errs["name"], "at most 10")
	assert.Contains(t, errs["email"], "valid email")
	assert.Contains(t, errs["creditLimit"], "at least 0")
	assert.Contains(t, errs["since"], "yyyy-mm-dd")
	assert.Equal(t, "Country is required", errs["countryId"])
	assert.Contains(t, errs["seats"], "whole number")
}

func TestSchema_ValidateSelectAgainstLoadedOptions(t *testing.T) {
	s := customerSchema()
	opts := map[string][]Option{"countryId": {{Value: "1", Label: "India"}}}

	errs := s.Validate(Values{"name": "Acme", "countryId": "2"}, opts)
	assert.Equal(t, "Select a valid country", errs["countryId"])

	assert.Nil(t, s.Validate(Values{"name": "Acme", "countryId": "1"}, opts))
}

func TestSchema_Payload(t *testing.T) {
	p, err := customerSchema().Payload(Values{
		"name":        " Acme ",
		"creditLimit": "1500.50",
		"countryId":   "3",
		"seats":       "4",
		"email":       "",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", p["name"])
	assert.Equal(t, json.Number("1500.5"), p["creditLimit"])
	assert.Equal(t, int64(3), p["countryId"])
	assert.Equal(t, int64(4), p["seats"])
	_, sent := p["email"]
	assert.False(t, sent)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"creditLimit":1500.5`)
}

func TestForm_SetValueClearsDependents(t *testing.T) {
	f := New(customerSchema())
	f.SetValue("countryId", "1")
	f.SetValue("stateId", "10")
	f.SetValue("cityId", "100")
	f.SetOptions("stateId", []Option{{Value: "10", Label: "Kerala"}})

	cleared := f.SetValue("countryId", "2")
	assert.Equal(t, []string{"stateId", "cityId"}, cleared)
	assert.Empty(t, f.Value("stateId"))
	assert.Empty(t, f.Value("cityId"))
	assert.Nil(t, f.Options("stateId"))

	assert.Nil(t, f.SetValue("countryId", "2"))
}

func TestForm_ResetAndPrefill(t *testing.T) {
	f := New(customerSchema())
	assert.Equal(t, "1", f.Value("seats"))

	f.Prefill(Values{"name": "Acme", "countryId": "1"})
	assert.Equal(t, "Acme", f.Value("name"))
	assert.Equal(t, "1", f.Value("seats"))

	f.Focus = 3
	f.Reset()
	assert.Empty(t, f.Value("name"))
	assert.Equal(t, 0, f.Focus)
}

func TestForm_PayloadReturnsErrors(t *testing.T) {
	f := New(customerSchema())
	_, err := f.Payload()

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs.Error(), "countryId: Country is required")
}

func TestForm_FocusWraps(t *testing.T) {
	f := New(Schema{{Name: "a"}, {Name: "b"}})
	f.Prev()
	assert.Equal(t, 1, f.Focus)
	f.Next()
	assert.Equal(t, 0, f.Focus)
	fld, ok := f.Focused()
	assert.True(t, ok)
	assert.Equal(t, "a", fld.Name)
}

func TestSchema_ValidateRejectsUnreadableNumbers(t *testing.T) {
	s := Schema{
		{Name: "price", Label: "Price", Kind: Number},
		{Name: "qty", Label: "Qty", Kind: Integer},
	}

	errs := s.Validate(Values{"price": ".", "qty": "99999999999999999999"}, nil)
	assert.Equal(t, "Price must be a number", errs["price"])
	assert.Equal(t, "Qty is too large", errs["qty"])

	f := New(s)
	f.SetValue("price", ".")
	_, err := f.Payload()
	var verr Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "price")
}

func TestForm_EditSendsClearedFieldsAsNull(t *testing.T) {
	f := New(customerSchema())
	f.Prefill(Values{"name": "Acme", "email": "ops@acme.test", "countryId": "91"})

	f.SetValue("email", "")
	out, err := f.Payload()
	require.NoError(t, err)
	require.Contains(t, out, "email")
	assert.Nil(t, out["email"])
	assert.NotContains(t, out, "since", "fields that were blank stay omitted")

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"email":null`)

	f.Reset()
	f.SetValue("name", "Bolt")
	f.SetValue("countryId", "91")
	out, err = f.Payload()
	require.NoError(t, err)
	assert.NotContains(t, out, "email")
}
