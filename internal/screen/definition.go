// Package screen is the configuration-driven list and CRUD screen used by
// every master and transaction view of the console.
package screen

import (
	"context"
	"strings"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/permission"
	"github.com/mikelcalvo/erp-console/internal/query"
	"github.com/mikelcalvo/erp-console/internal/report"
)

// Column is one table column.
type Column struct {
	Title string
	Width int
}

// Filter is one list filter input, sent as a query parameter named Name.
type Filter struct {
	Name  string
	Label string
}

// Row is one rendered record.
type Row struct {
	ID     int64
	Label  string
	Cells  []string
	Record interface{}
}

// Params are the inputs of one list fetch. They also key the cache entry.
type Params struct {
	PageNumber int         `json:"pageNumber,omitempty"`
	PageSize   int         `json:"pageSize,omitempty"`
	Filters    api.Filters `json:"filters,omitempty"`
	Parent     int64       `json:"parent,omitempty"`
}

// Result is one fetched page.
type Result struct {
	Rows      []Row
	TotalSize int
}

// OptionsFunc loads the choices of a select field given the current form values.
type OptionsFunc func(ctx context.Context, values form.Values) ([]form.Option, error)

// Definition is the erased configuration of one screen.
type Definition struct {
	Entity      string
	Noun        string
	Title       string
	Key         query.Key
	Invalidates []query.Key
	Columns     []Column
	Filters     []Filter
	Fields      form.Schema
	Options     map[string]OptionsFunc
	Paginated   bool
	PageSize    int

	// Lines is the child screen listing the line items of a row.
	Lines *Definition
	// Selection is the composite confirm action, when the screen has one.
	Selection *Selection

	fetch   func(ctx context.Context, p Params) (Result, error)
	create  func(ctx context.Context, parent int64, payload api.Payload) error
	update  func(ctx context.Context, parent, id int64, payload api.Payload) error
	remove  func(ctx context.Context, parent int64, row Row) error
	export  func(ctx context.Context, f api.Filters) ([]byte, error)
	report  func(ctx context.Context, row Row) (*report.Document, error)
	prefill func(row Row) form.Values
	perms   map[string]permission.ID
}

// Spec is the typed configuration a Definition is built from.
type Spec[T any] struct {
	Entity      string
	Noun        string
	Title       string
	Key         query.Key
	Invalidates []query.Key
	Columns     []Column
	Filters     []Filter
	Fields      form.Schema
	Options     map[string]OptionsFunc
	Paginated   bool
	PageSize    int

	Row     func(T) Row
	Prefill func(T) form.Values

	List       func(ctx context.Context, p api.ListParams) (api.Page[T], error)
	All        func(ctx context.Context, f api.Filters) ([]T, error)
	View       func(ctx context.Context, parent int64) ([]T, error)
	Create     func(ctx context.Context, payload api.Payload) (T, error)
	Update     func(ctx context.Context, id int64, payload api.Payload) (T, error)
	Delete     func(ctx context.Context, id int64) error
	CreateLine func(ctx context.Context, parent int64, payload api.Payload) (T, error)
	UpdateLine func(ctx context.Context, parent, id int64, payload api.Payload) (T, error)
	DeleteLine func(ctx context.Context, parent, id int64) error
	Export     func(ctx context.Context, f api.Filters) ([]byte, error)
	Report     func(ctx context.Context, record T) (*report.Document, error)

	Lines     *Definition
	Selection *Selection
	// Perms overrides the permission id of an action; the default is entity.action.
	Perms map[string]permission.ID
}

// Define erases a typed Spec into a Definition.
func Define[T any](s Spec[T]) *Definition {
	d := &Definition{
		Entity:      s.Entity,
		Noun:        s.Noun,
		Title:       s.Title,
		Key:         s.Key,
		Invalidates: s.Invalidates,
		Columns:     s.Columns,
		Filters:     s.Filters,
		Fields:      s.Fields,
		Options:     s.Options,
		Paginated:   s.Paginated,
		PageSize:    s.PageSize,
		Lines:       s.Lines,
		Selection:   s.Selection,
		perms:       s.Perms,
	}
	if d.Noun == "" {
		d.Noun = d.Title
	}

	toRows := func(items []T) []Row {
		rows := make([]Row, 0, len(items))
		for _, it := range items {
			r := s.Row(it)
			r.Record = it
			rows = append(rows, r)
		}
		return rows
	}

	switch {
	case s.View != nil:
		d.fetch = func(ctx context.Context, p Params) (Result, error) {
			items, err := s.View(ctx, p.Parent)
			if err != nil {
				return Result{}, err
			}
			return Result{Rows: toRows(items), TotalSize: len(items)}, nil
		}
	case s.Paginated && s.List != nil:
		d.fetch = func(ctx context.Context, p Params) (Result, error) {
			page, err := s.List(ctx, api.ListParams{PageNumber: p.PageNumber, PageSize: p.PageSize, Filters: p.Filters})
			if err != nil {
				return Result{}, err
			}
			return Result{Rows: toRows(page.Items), TotalSize: page.TotalSize}, nil
		}
	case s.All != nil:
		d.fetch = func(ctx context.Context, p Params) (Result, error) {
			items, err := s.All(ctx, p.Filters)
			if err != nil {
				return Result{}, err
			}
			return Result{Rows: toRows(items), TotalSize: len(items)}, nil
		}
	}

	switch {
	case s.CreateLine != nil:
		d.create = func(ctx context.Context, parent int64, payload api.Payload) error {
			_, err := s.CreateLine(ctx, parent, payload)
			return err
		}
	case s.Create != nil:
		d.create = func(ctx context.Context, _ int64, payload api.Payload) error {
			_, err := s.Create(ctx, payload)
			return err
		}
	}
	switch {
	case s.UpdateLine != nil:
		d.update = func(ctx context.Context, parent, id int64, payload api.Payload) error {
			_, err := s.UpdateLine(ctx, parent, id, payload)
			return err
		}
	case s.Update != nil:
		d.update = func(ctx context.Context, _, id int64, payload api.Payload) error {
			_, err := s.Update(ctx, id, payload)
			return err
		}
	}
	switch {
	case s.DeleteLine != nil:
		d.remove = func(ctx context.Context, parent int64, row Row) error {
			return s.DeleteLine(ctx, parent, row.ID)
		}
	case s.Delete != nil:
		d.remove = func(ctx context.Context, _ int64, row Row) error {
			return s.Delete(ctx, row.ID)
		}
	}
	d.export = s.Export
	if s.Report != nil {
		d.report = func(ctx context.Context, row Row) (*report.Document, error) {
			return s.Report(ctx, row.Record.(T))
		}
	}
	if s.Prefill != nil {
		d.prefill = func(row Row) form.Values {
			return s.Prefill(row.Record.(T))
		}
	}
	return d
}

// Perm is the permission id guarding action on this screen.
func (d *Definition) Perm(action string) permission.ID {
	if id, ok := d.perms[action]; ok {
		return id
	}
	return permission.For(d.Entity, action)
}

// Load fetches one page through the cache.
func (d *Definition) Load(ctx context.Context, cache *query.Cache, p Params) (Result, error) {
	return query.Fetch(ctx, cache, query.Query[Result]{
		Key:    d.Key,
		Params: p,
		Fetch: func(ctx context.Context) (Result, error) {
			return d.fetch(ctx, p)
		},
	})
}

// Keys are every cache key a mutation on this screen invalidates.
func (d *Definition) Keys() []query.Key {
	return append([]query.Key{d.Key}, d.Invalidates...)
}

// CanCreate reports whether the create action is available.
func (d *Definition) CanCreate(g permission.Gate) bool {
	return d.create != nil && len(d.Fields) > 0 && g.Has(d.Perm(permission.Create))
}

// CanView reports whether the screen may be opened.
func (d *Definition) CanView(g permission.Gate) bool {
	return g.Has(d.Perm(permission.View))
}

// CanExport reports whether the export action is available.
func (d *Definition) CanExport(g permission.Gate) bool {
	return g.Has(d.Perm(permission.Export))
}

// HasExport reports whether the backend offers an export file for this screen.
func (d *Definition) HasExport() bool { return d.export != nil }

// Export downloads the backend export.
func (d *Definition) Export(ctx context.Context, f api.Filters) ([]byte, error) {
	return d.export(ctx, f)
}

// Report builds the printable document of row.
func (d *Definition) Report(ctx context.Context, row Row) (*report.Document, error) {
	return d.report(ctx, row)
}

// ActionKind identifies a row action.
type ActionKind int

const (
	ActionEdit ActionKind = iota
	ActionDelete
	ActionLines
	ActionPrint
	ActionConfirm
)

// Action is one row action offered to the user.
type Action struct {
	Kind  ActionKind
	Key   string
	Label string
}

// Actions lists the row actions the gate allows.
func (d *Definition) Actions(g permission.Gate) []Action {
	var out []Action
	if d.update != nil && len(d.Fields) > 0 && g.Has(d.Perm(permission.Update)) {
		out = append(out, Action{Kind: ActionEdit, Key: "e", Label: "Edit"})
	}
	if d.remove != nil && g.Has(d.Perm(permission.Delete)) {
		out = append(out, Action{Kind: ActionDelete, Key: "d", Label: "Delete"})
	}
	if d.Lines != nil && g.Has(d.Lines.Perm(permission.View)) {
		out = append(out, Action{Kind: ActionLines, Key: "enter", Label: "Lines"})
	}
	if d.report != nil && g.Has(d.Perm(permission.Print)) {
		out = append(out, Action{Kind: ActionPrint, Key: "p", Label: "Print"})
	}
	if d.Selection != nil && g.Has(d.Perm(permission.Confirm)) {
		out = append(out, Action{Kind: ActionConfirm, Key: "c", Label: d.Selection.Label})
	}
	return out
}

// Allows reports whether kind is among the actions the gate allows.
func (d *Definition) Allows(g permission.Gate, kind ActionKind) bool {
	for _, a := range d.Actions(g) {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Prefill returns the form values of row for editing.
func (d *Definition) Prefill(row Row) form.Values {
	if d.prefill == nil {
		return form.Values{}
	}
	return d.prefill(row)
}

// Singular is the lower-case noun used in notices.
func (d *Definition) Singular() string {
	return strings.ToLower(d.Noun)
}
