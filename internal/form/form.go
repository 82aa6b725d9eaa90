// Package form describes editable fields, validates them and turns the
// entered text into mutation payloads.
package form

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"
)

// Kind is how a field is entered and validated.
type Kind int

const (
	Text Kind = iota
	Number
	Integer
	Email
	Date
	Select
	Secret
)

// DateLayout is the accepted date input.
const DateLayout = "2006-01-02"

// Option is one choice of a Select field.
type Option struct {
	Value string
	Label string
}

// Field is one input of a form.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Required    bool
	Min         decimal.NullDecimal
	MaxLen      int
	Default     string
	Placeholder string
	// DependsOn names the field whose change clears this one, e.g. state on country.
	DependsOn string
}

// Values are raw field inputs keyed by field name.
type Values map[string]string

// Clone copies v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Errors are validation messages keyed by field name.
type Errors map[string]string

func (e Errors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e[name])
	}
	return strings.Join(parts, "; ")
}

// Schema is an ordered field list.
type Schema []Field

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Defaults are the values of a blank create form.
func (s Schema) Defaults() Values {
	v := Values{}
	for _, f := range s {
		v[f.Name] = f.Default
	}
	return v
}

// Validate checks v. options holds the loaded choices of Select fields; a
// Select without loaded choices is not checked against them.
func (s Schema) Validate(v Values, options map[string][]Option) Errors {
	errs := Errors{}
	for _, f := range s {
		if msg := f.check(strings.TrimSpace(v[f.Name]), options[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f Field) check(val string, opts []Option) string {
	if val == "" {
		if f.Required {
			return f.Label + " is required"
		}
		return ""
	}
	if f.MaxLen > 0 && len([]rune(val)) > f.MaxLen {
		return fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLen)
	}

	switch f.Kind {
	case Email:
		if !govalidator.IsEmail(val) {
			return f.Label + " must be a valid email"
		}
	case Number:
		if !govalidator.IsFloat(val) {
			return f.Label + " must be a number"
		}
		// IsFloat accepts forms such as "." that decimal cannot read.
		if _, err := decimal.NewFromString(val); err != nil {
			return f.Label + " must be a number"
		}
		if msg := f.checkMin(val); msg != "" {
			return msg
		}
	case Integer:
		if !govalidator.IsInt(val) {
			return f.Label + " must be a whole number"
		}
		if _, err := strconv.ParseInt(val, 10, 64); err != nil {
			return f.Label + " is too large"
		}
		if msg := f.checkMin(val); msg != "" {
			return msg
		}
	case Date:
		if _, err := time.Parse(DateLayout, val); err != nil {
			return f.Label + " must be a date (yyyy-mm-dd)"
		}
	case Select:
		if len(opts) > 0 && !hasOption(opts, val) {
			return "Select a valid " + strings.ToLower(f.Label)
		}
	}
	return ""
}

func (f Field) checkMin(val string) string {
	if !f.Min.Valid {
		return ""
	}
	d, err := decimal.NewFromString(val)
	if err != nil || d.LessThan(f.Min.Decimal) {
		return fmt.Sprintf("%s must be at least %s", f.Label, f.Min.Decimal.String())
	}
	return ""
}

func hasOption(opts []Option, val string) bool {
	for _, o := range opts {
		if o.Value == val {
			return true
		}
	}
	return false
}

// Payload converts validated values into a JSON body. Numbers are sent as
// JSON numbers, integers and select ids as int64, and empty optional fields
// are left out.
func (s Schema) Payload(v Values) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, f := range s {
		val := strings.TrimSpace(v[f.Name])
		if val == "" {
			continue
		}
		switch f.Kind {
		case Number:
			d, err := decimal.NewFromString(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out[f.Name] = json.Number(d.String())
		case Integer:
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out[f.Name] = n
		case Select:
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				out[f.Name] = n
			} else {
				out[f.Name] = val
			}
		default:
			out[f.Name] = val
		}
	}
	return out, nil
}
