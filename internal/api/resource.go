package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
)

// Payload is a mutation body.
type Payload map[string]interface{}

// Filters are list query parameters. Empty values are not sent.
type Filters map[string]string

// Values encodes the non-empty filters in key order.
func (f Filters) Values() url.Values {
	v := url.Values{}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f[k] != "" {
			v.Set(k, f[k])
		}
	}
	return v
}

// ListParams select one page of a list.
type ListParams struct {
	PageNumber int
	PageSize   int
	Filters    Filters
}

// Page is a paginated list response.
type Page[T any] struct {
	Items     []T `json:"items"`
	TotalSize int `json:"totalSize"`
}

// CompanyScope provides the active company for company-scoped resources.
type CompanyScope interface {
	Current() (int64, bool)
}

// Resource binds one REST collection.
type Resource[T any] struct {
	client  *Client
	path    string
	company CompanyScope
}

// NewResource binds path. A non-nil company scopes lists, exports and mutation payloads.
func NewResource[T any](c *Client, path string, company CompanyScope) *Resource[T] {
	return &Resource[T]{client: c, path: path, company: company}
}

// Path is the collection path.
func (r *Resource[T]) Path() string { return r.path }

// Scoped reports whether the resource is company-scoped.
func (r *Resource[T]) Scoped() bool { return r.company != nil }

func (r *Resource[T]) scope(v url.Values) url.Values {
	if r.company == nil {
		return v
	}
	if id, ok := r.company.Current(); ok {
		v.Set("companyId", strconv.FormatInt(id, 10))
	}
	return v
}

func (r *Resource[T]) scopePayload(p Payload) Payload {
	out := Payload{}
	for k, v := range p {
		out[k] = v
	}
	if r.company == nil {
		return out
	}
	if _, set := out["companyId"]; !set {
		if id, ok := r.company.Current(); ok {
			out["companyId"] = id
		}
	}
	return out
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, p ListParams) (Page[T], error) {
	v := r.scope(p.Filters.Values())
	if p.PageNumber > 0 {
		v.Set("pageNumber", strconv.Itoa(p.PageNumber))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}

	var page Page[T]
	if err := r.client.Request(ctx, http.MethodGet, r.path, v, nil, &page); err != nil {
		return Page[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// All fetches the unpaginated collection.
func (r *Resource[T]) All(ctx context.Context, f Filters) ([]T, error) {
	v := r.scope(f.Values())
	v.Set("all", "true")

	var raw json.RawMessage
	if err := r.client.Request(ctx, http.MethodGet, r.path, v, nil, &raw); err != nil {
		return nil, err
	}
	return decodeCollection[T](raw)
}

// Get fetches one record.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.client.Request(ctx, http.MethodGet, r.itemPath(id), nil, nil, &out)
	return out, err
}

// Create posts payload and returns the created record when the backend echoes it.
func (r *Resource[T]) Create(ctx context.Context, payload Payload) (T, error) {
	var raw json.RawMessage
	if err := r.client.Request(ctx, http.MethodPost, r.path, nil, r.scopePayload(payload), &raw); err != nil {
		return *new(T), err
	}
	r.client.log.Info().Str("resource", r.path).Msg("created")
	return echoed[T](r.client, r.path, raw), nil
}

// Update puts {id, ...payload}.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload Payload) (T, error) {
	body := r.scopePayload(payload)
	body["id"] = id

	var raw json.RawMessage
	if err := r.client.Request(ctx, http.MethodPut, r.itemPath(id), nil, body, &raw); err != nil {
		return *new(T), err
	}
	r.client.log.Info().Str("resource", r.path).Int64("id", id).Msg("updated")
	return echoed[T](r.client, r.path, raw), nil
}

// Delete removes one record.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	err := r.client.Request(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
	if err == nil {
		r.client.log.Info().Str("resource", r.path).Int64("id", id).Msg("deleted")
	}
	return err
}

// Export downloads the backend's export file for the filtered collection.
func (r *Resource[T]) Export(ctx context.Context, f Filters) ([]byte, error) {
	return r.client.Raw(ctx, r.path+"/export", r.scope(f.Values()))
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}

// Lines binds the line-item view of a transactional header.
type Lines[L any] struct {
	client *Client
	path   string
}

// NewLines binds the line items of the headers under path.
func NewLines[L any](c *Client, path string) *Lines[L] {
	return &Lines[L]{client: c, path: path}
}

// View fetches the line items of one header.
func (l *Lines[L]) View(ctx context.Context, headerID int64) ([]L, error) {
	var raw json.RawMessage
	if err := l.client.Request(ctx, http.MethodGet, fmt.Sprintf("%s/%d/view", l.path, headerID), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeCollection[L](raw)
}

// Create adds a line to a header and returns it when the backend echoes it.
func (l *Lines[L]) Create(ctx context.Context, headerID int64, payload Payload) (L, error) {
	var raw json.RawMessage
	if err := l.client.Request(ctx, http.MethodPost, l.itemsPath(headerID), nil, payload, &raw); err != nil {
		return *new(L), err
	}
	l.client.log.Info().Str("resource", l.path).Int64("id", headerID).Msg("line created")
	return echoed[L](l.client, l.path, raw), nil
}

// Update puts {id, ...payload} on one line of a header.
func (l *Lines[L]) Update(ctx context.Context, headerID, lineID int64, payload Payload) (L, error) {
	body := Payload{}
	for k, v := range payload {
		body[k] = v
	}
	body["id"] = lineID

	var raw json.RawMessage
	if err := l.client.Request(ctx, http.MethodPut, fmt.Sprintf("%s/%d", l.itemsPath(headerID), lineID), nil, body, &raw); err != nil {
		return *new(L), err
	}
	l.client.log.Info().Str("resource", l.path).Int64("id", headerID).Int64("line", lineID).Msg("line updated")
	return echoed[L](l.client, l.path, raw), nil
}

// Delete removes one line from a header.
func (l *Lines[L]) Delete(ctx context.Context, headerID, lineID int64) error {
	err := l.client.Request(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", l.itemsPath(headerID), lineID), nil, nil, nil)
	if err == nil {
		l.client.log.Info().Str("resource", l.path).Int64("id", headerID).Int64("line", lineID).Msg("line deleted")
	}
	return err
}

func (l *Lines[L]) itemsPath(headerID int64) string {
	return fmt.Sprintf("%s/%d/items", l.path, headerID)
}

// echoed decodes a mutation response into T. Backends that answer with
// something other than the record yield the zero value.
func echoed[T any](c *Client, path string, raw json.RawMessage) T {
	var out T
	if len(raw) == 0 || raw[0] != '{' {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Debug().Err(err).Str("resource", path).Msg("mutation response is not a record")
		return *new(T)
	}
	return out
}

// decodeCollection accepts a bare array or an {items} / {lineItems} envelope.
func decodeCollection[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return items, nil
	}

	var env struct {
		Items     []T `json:"items"`
		LineItems []T `json:"lineItems"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	switch {
	case env.Items != nil:
		return env.Items, nil
	case env.LineItems != nil:
		return env.LineItems, nil
	}
	return []T{}, nil
}
