package form

import "strings"

// Form is the editable state of one modal.
type Form struct {
	Schema Schema
	Errors Errors
	Focus  int

	values    Values
	prefilled Values
	options   map[string][]Option
}

// New starts a form at the schema defaults.
func New(schema Schema) *Form {
	f := &Form{Schema: schema, options: map[string][]Option{}}
	f.Reset()
	return f
}

// Reset restores the blank create state.
func (f *Form) Reset() {
	f.values = f.Schema.Defaults()
	f.prefilled = nil
	f.Errors = nil
	f.Focus = 0
}

// Prefill loads the values of the record being edited over the defaults.
func (f *Form) Prefill(v Values) {
	f.Reset()
	for k, val := range v {
		f.values[k] = val
	}
	f.prefilled = v.Clone()
}

// Value returns the current input of name.
func (f *Form) Value(name string) string {
	return f.values[name]
}

// Values copies the current inputs.
func (f *Form) Values() Values {
	return f.values.Clone()
}

// SetValue stores val and clears every field depending on name, transitively.
// It returns the cleared field names.
func (f *Form) SetValue(name, val string) []string {
	if f.values[name] == val {
		return nil
	}
	f.values[name] = val
	delete(f.Errors, name)

	var cleared []string
	queue := []string{name}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, fld := range f.Schema {
			if fld.DependsOn != parent || f.values[fld.Name] == "" {
				continue
			}
			f.values[fld.Name] = ""
			delete(f.options, fld.Name)
			cleared = append(cleared, fld.Name)
			queue = append(queue, fld.Name)
		}
	}
	return cleared
}

// SetOptions stores the loaded choices of a Select field.
func (f *Form) SetOptions(name string, opts []Option) {
	f.options[name] = opts
}

// Options returns the loaded choices of a Select field.
func (f *Form) Options(name string) []Option {
	return f.options[name]
}

// OptionLabel is the label of the selected choice, or the raw value.
func (f *Form) OptionLabel(name string) string {
	val := f.values[name]
	for _, o := range f.options[name] {
		if o.Value == val {
			return o.Label
		}
	}
	return val
}

// Validate runs the schema checks and keeps the errors for display.
func (f *Form) Validate() bool {
	f.Errors = f.Schema.Validate(f.values, f.options)
	return len(f.Errors) == 0
}

// Payload validates and converts the inputs. Validation failures are returned as Errors.
func (f *Form) Payload() (map[string]interface{}, error) {
	if !f.Validate() {
		return nil, f.Errors
	}
	out, err := f.Schema.Payload(f.values)
	if err != nil {
		return nil, err
	}
	// A cleared field of the edited record is sent as null so the backend drops it.
	for _, fld := range f.Schema {
		if strings.TrimSpace(f.prefilled[fld.Name]) != "" && strings.TrimSpace(f.values[fld.Name]) == "" {
			out[fld.Name] = nil
		}
	}
	return out, nil
}

// Next moves focus forward, wrapping.
func (f *Form) Next() {
	if len(f.Schema) == 0 {
		return
	}
	f.Focus = (f.Focus + 1) % len(f.Schema)
}

// Prev moves focus back, wrapping.
func (f *Form) Prev() {
	if len(f.Schema) == 0 {
		return
	}
	f.Focus = (f.Focus - 1 + len(f.Schema)) % len(f.Schema)
}

// Focused is the field under focus.
func (f *Form) Focused() (Field, bool) {
	if f.Focus < 0 || f.Focus >= len(f.Schema) {
		return Field{}, false
	}
	return f.Schema[f.Focus], true
}
