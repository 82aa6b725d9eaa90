package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/permission"
	"github.com/mikelcalvo/erp-console/internal/query"
)

type widget struct {
	ID   int64
	Name string
	Qty  string
}

// widgetStore is an in-memory backend for one entity.
type widgetStore struct {
	mu        sync.Mutex
	items     []widget
	nextID    int64
	lists     []api.ListParams
	created   []api.Payload
	updated   map[int64]api.Payload
	deleteErr error
}

func newWidgetStore(n int) *widgetStore {
	s := &widgetStore{nextID: 1, updated: map[int64]api.Payload{}}
	for i := 0; i < n; i++ {
		s.items = append(s.items, widget{ID: s.nextID, Name: fmt.Sprintf("widget %02d", s.nextID), Qty: fmt.Sprint(n - i)})
		s.nextID++
	}
	return s
}

func (s *widgetStore) list(_ context.Context, p api.ListParams) (api.Page[widget], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, p)
	var match []widget
	for _, w := range s.items {
		if strings.Contains(w.Name, p.Filters["name"]) {
			match = append(match, w)
		}
	}
	start := (p.PageNumber - 1) * p.PageSize
	end := min(start+p.PageSize, len(match))
	if start > len(match) {
		start = len(match)
	}
	return api.Page[widget]{Items: match[start:end], TotalSize: len(match)}, nil
}

func (s *widgetStore) create(_ context.Context, p api.Payload) (widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, p)
	w := widget{ID: s.nextID, Name: fmt.Sprint(p["name"])}
	s.nextID++
	s.items = append(s.items, w)
	return w, nil
}

func (s *widgetStore) update(_ context.Context, id int64, p api.Payload) (widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated[id] = p
	return widget{ID: id}, nil
}

func (s *widgetStore) delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, w := range s.items {
		if w.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: 404, Message: "not found"}
}

func widgetDefinition(s *widgetStore) *Definition {
	return Define(Spec[widget]{
		Entity:      "widget",
		Noun:        "Widget",
		Title:       "Widgets",
		Key:         "widgets",
		Invalidates: []query.Key{"stock"},
		Columns:     []Column{{Title: "Name", Width: 20}, {Title: "Qty", Width: 6}},
		Filters:     []Filter{{Name: "name", Label: "Name"}},
		Fields: form.Schema{
			{Name: "name", Label: "Name", Kind: form.Text, Required: true},
		},
		Paginated: true,
		Row: func(w widget) Row {
			return Row{ID: w.ID, Label: w.Name, Cells: []string{w.Name, w.Qty}}
		},
		Prefill: func(w widget) form.Values {
			return form.Values{"name": w.Name}
		},
		List:   s.list,
		Create: s.create,
		Update: s.update,
		Delete: s.delete,
	})
}

func allGrants(entity string) permission.Gate {
	var ids []string
	for _, a := range []string{permission.View, permission.Create, permission.Update, permission.Delete, permission.Print, permission.Export, permission.Confirm} {
		ids = append(ids, string(permission.For(entity, a)))
	}
	return permission.NewGate(ids)
}

func load(t *testing.T, inst *Instance, cache *query.Cache) {
	t.Helper()
	gen, p := inst.Begin()
	res, err := inst.Def.Load(context.Background(), cache, p)
	require.True(t, inst.Apply(gen, res, err))
}

func TestInstance_Pagination(t *testing.T) {
	store := newWidgetStore(25)
	def := widgetDefinition(store)
	cache := query.NewCache(time.Minute, nil)
	inst := NewInstance(def, nil, 10, 0)

	load(t, inst, cache)
	assert.Equal(t, Populated, inst.Status)
	assert.Len(t, inst.Rows, 10)
	assert.Equal(t, 3, inst.Pagination.Pages())
	assert.True(t, inst.Pagination.PrevDisabled())
	assert.False(t, inst.PrevPage())

	require.True(t, inst.NextPage())
	require.True(t, inst.NextPage())
	load(t, inst, cache)
	assert.Len(t, inst.Rows, 5)
	assert.True(t, inst.Pagination.NextDisabled())
	assert.False(t, inst.NextPage())
	assert.Equal(t, api.ListParams{PageNumber: 3, PageSize: 10, Filters: api.Filters{}}, store.lists[len(store.lists)-1])

	require.True(t, inst.SetPageSize(20))
	assert.Equal(t, 1, inst.Pagination.PageNumber)
	assert.False(t, inst.SetPageSize(20))
}

func TestPagination_EmptyList(t *testing.T) {
	p := Pagination{PageNumber: 1, PageSize: 10, TotalSize: 0}
	assert.True(t, p.NextDisabled())
	assert.True(t, p.PrevDisabled())

	p = Pagination{PageNumber: 2, PageSize: 10, TotalSize: 20}
	assert.True(t, p.NextDisabled())
	assert.False(t, p.PrevDisabled())
}

func TestInstance_FilterDebounce(t *testing.T) {
	def := widgetDefinition(newWidgetStore(3))
	inst := NewInstance(def, nil, 10, 300*time.Millisecond)
	inst.Pagination.PageNumber = 2
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	first := inst.SetFilter("name", "w", t0)
	second := inst.SetFilter("name", "wi", t0.Add(100*time.Millisecond))

	assert.False(t, inst.Settle(first, t0.Add(400*time.Millisecond)), "superseded keystroke")
	assert.False(t, inst.Settle(second, t0.Add(200*time.Millisecond)), "quiet period not over")
	assert.Empty(t, inst.Filters())

	require.True(t, inst.Settle(second, t0.Add(400*time.Millisecond)))
	assert.Equal(t, api.Filters{"name": "wi"}, inst.Filters())
	assert.Equal(t, 1, inst.Pagination.PageNumber)

	// Typing back to the applied value does not refetch.
	tag := inst.SetFilter("name", "wi", t0.Add(time.Second))
	assert.False(t, inst.Settle(tag, t0.Add(2*time.Second)))
}

func TestInstance_FlushAppliesPendingFilters(t *testing.T) {
	inst := NewInstance(widgetDefinition(newWidgetStore(3)), nil, 10, time.Hour)
	inst.Pagination.PageNumber = 3
	inst.SetFilter("name", "wid", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	require.True(t, inst.Flush())
	assert.Equal(t, api.Filters{"name": "wid"}, inst.Filters())
	assert.Equal(t, 1, inst.Pagination.PageNumber)
	assert.False(t, inst.Flush(), "nothing left to apply")
}

func TestInstance_ApplyDropsSupersededFetch(t *testing.T) {
	inst := NewInstance(widgetDefinition(newWidgetStore(0)), nil, 10, 0)

	old, _ := inst.Begin()
	latest, _ := inst.Begin()

	assert.True(t, inst.Apply(latest, Result{Rows: []Row{{ID: 2}}, TotalSize: 1}, nil))
	assert.False(t, inst.Apply(old, Result{Rows: []Row{{ID: 1}}, TotalSize: 1}, nil))
	require.Len(t, inst.Rows, 1)
	assert.Equal(t, int64(2), inst.Rows[0].ID)
}

func TestInstance_ApplyErrorLeavesEmpty(t *testing.T) {
	inst := NewInstance(widgetDefinition(newWidgetStore(0)), nil, 10, 0)
	gen, _ := inst.Begin()
	assert.Equal(t, Loading, inst.Status)

	boom := errors.New("network down")
	inst.Apply(gen, Result{}, boom)
	assert.Equal(t, Empty, inst.Status)
	assert.Equal(t, boom, inst.Err)
	assert.Equal(t, "empty", inst.Status.String())
}

func TestInstance_ToggleSort(t *testing.T) {
	inst := NewInstance(widgetDefinition(newWidgetStore(0)), nil, 10, 0)
	gen, _ := inst.Begin()
	inst.Apply(gen, Result{Rows: []Row{
		{ID: 1, Cells: []string{"b", "10"}},
		{ID: 2, Cells: []string{"a", "9"}},
		{ID: 3, Cells: []string{"c", "1,200"}},
	}}, nil)

	inst.ToggleSort(1)
	assert.Equal(t, []int64{2, 1, 3}, ids(inst.Rows))
	inst.ToggleSort(1)
	assert.Equal(t, []int64{3, 1, 2}, ids(inst.Rows))
	inst.ToggleSort(0)
	assert.Equal(t, []int64{2, 1, 3}, ids(inst.Rows))
	col, desc := inst.Sort()
	assert.Equal(t, 0, col)
	assert.False(t, desc)
}

func ids(rows []Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestDefinition_Actions(t *testing.T) {
	def := widgetDefinition(newWidgetStore(0))

	assert.Empty(t, def.Actions(permission.Gate{}))
	assert.False(t, def.CanCreate(permission.Gate{}))
	assert.False(t, def.CanView(permission.Gate{}))

	g := permission.NewGate([]string{"widget.view", "widget.update"})
	acts := def.Actions(g)
	require.Len(t, acts, 1)
	assert.Equal(t, ActionEdit, acts[0].Kind)
	assert.True(t, def.Allows(g, ActionEdit))
	assert.False(t, def.Allows(g, ActionDelete))

	full := allGrants("widget")
	assert.True(t, def.CanCreate(full))
	// No report builder and no lines: print and lines stay hidden.
	assert.False(t, def.Allows(full, ActionPrint))
	assert.False(t, def.Allows(full, ActionLines))
	assert.False(t, def.HasExport())
}

func TestModal_CreateResetsForm(t *testing.T) {
	store := newWidgetStore(0)
	def := widgetDefinition(store)
	cache := query.NewCache(time.Minute, nil)
	m := NewModal(def, 0)

	m.OpenCreate()
	_, err := m.Submit(context.Background(), cache)
	var verrs form.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Name is required", verrs["name"])
	assert.Empty(t, store.created)
	assert.False(t, m.Busy)

	m.Form.SetValue("name", "sprocket")
	notice, err := m.Submit(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, "Widget created successfully", notice)
	assert.False(t, m.Open)
	assert.Equal(t, "", m.Form.Value("name"))
	require.Len(t, store.created, 1)
	assert.Equal(t, "sprocket", store.created[0]["name"])
}

func TestModal_EditSendsIdentity(t *testing.T) {
	store := newWidgetStore(2)
	def := widgetDefinition(store)
	m := NewModal(def, 0)

	row := rowOf(t, def, 2)
	m.OpenEdit(row)
	assert.Equal(t, "Edit Widget", m.Title())
	assert.Equal(t, "widget 02", m.Form.Value("name"))

	m.Form.SetValue("name", "renamed")
	notice, err := m.Submit(context.Background(), query.NewCache(time.Minute, nil))
	require.NoError(t, err)
	assert.Equal(t, "Widget updated successfully", notice)
	assert.Equal(t, "renamed", store.updated[2]["name"])
	assert.Empty(t, store.created)
}

// rowOf builds the row for id the way a list load would.
func rowOf(t *testing.T, d *Definition, id int64) Row {
	t.Helper()
	res, err := d.fetch(context.Background(), Params{PageNumber: 1, PageSize: 100})
	require.NoError(t, err)
	for _, r := range res.Rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("row %d not found", id)
	return Row{}
}

func TestModal_DeleteInvalidates(t *testing.T) {
	store := newWidgetStore(3)
	def := widgetDefinition(store)
	cache := query.NewCache(time.Minute, nil)
	inst := NewInstance(def, nil, 10, 0)
	load(t, inst, cache)

	_, params := inst.Begin()
	require.True(t, cache.Fresh(def.Key, params))

	var got []query.Key
	unsub := cache.Subscribe(func(keys []query.Key) { got = append(got, keys...) })
	defer unsub()

	m := NewModal(def, 0)
	m.OpenDelete(inst.Rows[0])
	assert.Equal(t, `Are you sure you want to delete widget "widget 01"?`, m.Message())

	notice, err := m.Submit(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, "Widget deleted successfully", notice)
	assert.False(t, m.Open)
	assert.False(t, cache.Fresh(def.Key, params))
	assert.ElementsMatch(t, []query.Key{"widgets", "stock"}, got)
}

func TestModal_DeleteReferencedRecord(t *testing.T) {
	store := newWidgetStore(1)
	store.deleteErr = &api.Error{Status: 409, Message: "update or delete violates foreign key constraint"}
	def := widgetDefinition(store)
	cache := query.NewCache(time.Minute, nil)

	m := NewModal(def, 0)
	m.OpenDelete(rowOf(t, def, 1))
	notice, err := m.Submit(context.Background(), cache)
	require.Error(t, err)
	assert.Equal(t, api.ReferencedMessage, notice)
	assert.True(t, m.Open)
	assert.False(t, m.Busy)
}

func TestModal_BusyBlocksSecondSubmit(t *testing.T) {
	m := NewModal(widgetDefinition(newWidgetStore(0)), 0)
	m.OpenCreate()
	m.Form.SetValue("name", "x")

	_, err := m.Prepare()
	require.NoError(t, err)
	_, err = m.Prepare()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestDefine_LineItemsDeleteWithParent(t *testing.T) {
	var deleted [2]int64
	lines := Define(Spec[widget]{
		Entity: "widget-line",
		Title:  "Lines",
		Key:    "widget-lines",
		Row:    func(w widget) Row { return Row{ID: w.ID, Label: w.Name} },
		View: func(_ context.Context, parent int64) ([]widget, error) {
			return []widget{{ID: parent*10 + 1, Name: "line"}}, nil
		},
		DeleteLine: func(_ context.Context, parent, id int64) error {
			deleted = [2]int64{parent, id}
			return nil
		},
	})
	cache := query.NewCache(time.Minute, nil)
	inst := NewInstance(lines, &Row{ID: 7, Label: "PO-7"}, 10, 0)
	load(t, inst, cache)
	require.Len(t, inst.Rows, 1)
	assert.Equal(t, "Lines · PO-7", inst.Title())

	m := NewModal(lines, inst.ParentID())
	m.OpenDelete(inst.Rows[0])
	_, err := m.Submit(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, [2]int64{7, 71}, deleted)
}

func TestDefine_LineItemsCreateAndUpdateWithParent(t *testing.T) {
	type call struct {
		parent, id int64
		name       interface{}
	}
	var created, updated []call
	lines := Define(Spec[widget]{
		Entity:  "widget-line",
		Noun:    "Line item",
		Title:   "Lines",
		Key:     "widget-lines",
		Fields:  form.Schema{{Name: "name", Label: "Name", Kind: form.Text, Required: true}},
		Row:     func(w widget) Row { return Row{ID: w.ID, Label: w.Name} },
		Prefill: func(w widget) form.Values { return form.Values{"name": w.Name} },
		View: func(_ context.Context, parent int64) ([]widget, error) {
			return []widget{{ID: parent*10 + 1, Name: "line"}}, nil
		},
		CreateLine: func(_ context.Context, parent int64, p api.Payload) (widget, error) {
			created = append(created, call{parent: parent, name: p["name"]})
			return widget{}, nil
		},
		UpdateLine: func(_ context.Context, parent, id int64, p api.Payload) (widget, error) {
			updated = append(updated, call{parent: parent, id: id, name: p["name"]})
			return widget{}, nil
		},
	})
	g := permission.NewGate([]string{"widget-line.create", "widget-line.update"})
	assert.True(t, lines.CanCreate(g))
	assert.True(t, lines.Allows(g, ActionEdit))

	cache := query.NewCache(time.Minute, nil)
	inst := NewInstance(lines, &Row{ID: 7, Label: "PO-7"}, 10, 0)
	load(t, inst, cache)

	m := NewModal(lines, inst.ParentID())
	m.OpenCreate()
	m.Form.SetValue("name", "washer")
	notice, err := m.Submit(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, "Line item created successfully", notice)

	m.OpenEdit(inst.Rows[0])
	m.Form.SetValue("name", "bolt")
	_, err = m.Submit(context.Background(), cache)
	require.NoError(t, err)

	assert.Equal(t, []call{{parent: 7, name: "washer"}}, created)
	assert.Equal(t, []call{{parent: 7, id: 71, name: "bolt"}}, updated)
}

func TestSelectionModal(t *testing.T) {
	var got SelectionRequest
	calls := 0
	sel := &Selection{
		Label:       "Confirm",
		Invalidates: []query.Key{"quotations", "proforma-invoices"},
		Submit: func(_ context.Context, _ Row, req SelectionRequest) error {
			calls++
			got = req
			return nil
		},
	}
	items := []SelectionItem{{ID: 11, Label: "Bolt"}, {ID: 12, Label: "Nut"}}
	s := NewSelectionModal(sel, Row{ID: 5}, items)
	cache := query.NewCache(time.Minute, nil)

	_, err := s.Submit(context.Background(), cache)
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Equal(t, "Select at least one line item", s.Notice)
	assert.Equal(t, 0, calls)

	s.ToggleAll()
	assert.True(t, s.AllChecked())
	s.Toggle(0)
	assert.Equal(t, []int64{12}, s.Selected())

	s.ExtraCharges = "-5"
	_, err = s.Submit(context.Background(), cache)
	assert.ErrorIs(t, err, ErrInvalidCharges)
	assert.Equal(t, 0, calls)

	s.ExtraCharges = "  "
	notice, err := s.Submit(context.Background(), cache)
	require.NoError(t, err)
	assert.Equal(t, "Confirm completed successfully", notice)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{12}, got.IDs)
	assert.True(t, got.ExtraCharges.Equal(decimal.Zero))
	assert.Equal(t, api.DefaultExtraChargesDescription, got.Description)
	assert.False(t, s.Open)
}
