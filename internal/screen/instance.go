package screen

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-console/internal/api"
)

// Status is the list state of a screen.
type Status int

const (
	Loading Status = iota
	Empty
	Populated
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	default:
		return "populated"
	}
}

// Pagination tracks the page window of a paginated list.
type Pagination struct {
	PageNumber int
	PageSize   int
	TotalSize  int
}

// Pages is ceil(TotalSize/PageSize), at least 1.
func (p Pagination) Pages() int {
	if p.PageSize <= 0 || p.TotalSize <= 0 {
		return 1
	}
	return (p.TotalSize + p.PageSize - 1) / p.PageSize
}

// NextDisabled reports whether the current page is the last one.
func (p Pagination) NextDisabled() bool {
	return p.PageNumber >= p.Pages()
}

// PrevDisabled reports whether the current page is the first one.
func (p Pagination) PrevDisabled() bool {
	return p.PageNumber <= 1
}

// Instance is the live state of one open screen.
type Instance struct {
	Def        *Definition
	Parent     *Row
	Status     Status
	Rows       []Row
	Err        error
	Pagination Pagination
	Debounce   time.Duration

	applied    api.Filters
	pending    api.Filters
	tag        int
	lastChange time.Time
	gen        uint64
	sortCol    int
	sortDesc   bool
}

// NewInstance opens def. parent is set for line-item screens.
func NewInstance(def *Definition, parent *Row, pageSize int, debounce time.Duration) *Instance {
	if def.PageSize > 0 {
		pageSize = def.PageSize
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Instance{
		Def:        def,
		Parent:     parent,
		Status:     Loading,
		Pagination: Pagination{PageNumber: 1, PageSize: pageSize},
		Debounce:   debounce,
		applied:    api.Filters{},
		pending:    api.Filters{},
		sortCol:    -1,
	}
}

// SetFilter records a keystroke and returns the debounce tag to settle after the quiet period.
func (i *Instance) SetFilter(name, value string, now time.Time) int {
	i.pending[name] = value
	i.tag++
	i.lastChange = now
	return i.tag
}

// Filter is the current (pending) input of name.
func (i *Instance) Filter(name string) string {
	return i.pending[name]
}

// Filters are the filters the displayed rows were fetched with.
func (i *Instance) Filters() api.Filters {
	out := api.Filters{}
	for k, v := range i.applied {
		out[k] = v
	}
	return out
}

// Settle applies the pending filters when tag is the latest change and the
// quiet period has passed. It reports whether a fetch is now required.
func (i *Instance) Settle(tag int, now time.Time) bool {
	if tag != i.tag || now.Sub(i.lastChange) < i.Debounce {
		return false
	}
	if sameFilters(i.applied, i.pending) {
		return false
	}
	i.applied = api.Filters{}
	for k, v := range i.pending {
		i.applied[k] = v
	}
	i.Pagination.PageNumber = 1
	return true
}

// Flush applies the pending filters without waiting for the quiet period and
// reports whether a fetch is now required.
func (i *Instance) Flush() bool {
	return i.Settle(i.tag, i.lastChange.Add(i.Debounce))
}

func sameFilters(a, b api.Filters) bool {
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	for k, v := range b {
		if a[k] != v {
			return false
		}
	}
	return true
}

// Begin starts a fetch and returns its generation and parameters.
func (i *Instance) Begin() (uint64, Params) {
	i.gen++
	i.Status = Loading
	p := Params{Filters: i.Filters()}
	if i.Def.Paginated {
		p.PageNumber = i.Pagination.PageNumber
		p.PageSize = i.Pagination.PageSize
	}
	if i.Parent != nil {
		p.Parent = i.Parent.ID
	}
	return i.gen, p
}

// Apply stores the outcome of fetch gen. Outcomes of superseded fetches are
// dropped and Apply reports false.
func (i *Instance) Apply(gen uint64, res Result, err error) bool {
	if gen != i.gen {
		return false
	}
	if err != nil {
		i.Err = err
		i.Rows = nil
		i.Pagination.TotalSize = 0
		i.Status = Empty
		return true
	}
	i.Err = nil
	i.Rows = res.Rows
	i.Pagination.TotalSize = res.TotalSize
	if len(res.Rows) == 0 {
		i.Status = Empty
	} else {
		i.Status = Populated
	}
	i.sortRows()
	return true
}

// NextPage advances one page; it reports whether a fetch is required.
func (i *Instance) NextPage() bool {
	if !i.Def.Paginated || i.Pagination.NextDisabled() {
		return false
	}
	i.Pagination.PageNumber++
	return true
}

// PrevPage goes back one page; it reports whether a fetch is required.
func (i *Instance) PrevPage() bool {
	if !i.Def.Paginated || i.Pagination.PrevDisabled() {
		return false
	}
	i.Pagination.PageNumber--
	return true
}

// SetPageSize changes the page size and returns to the first page.
func (i *Instance) SetPageSize(n int) bool {
	if !i.Def.Paginated || n < 1 || n == i.Pagination.PageSize {
		return false
	}
	i.Pagination.PageSize = n
	i.Pagination.PageNumber = 1
	return true
}

// ToggleSort sorts the loaded rows by col, flipping direction on repeat.
func (i *Instance) ToggleSort(col int) {
	if col < 0 || col >= len(i.Def.Columns) {
		return
	}
	if i.sortCol == col {
		i.sortDesc = !i.sortDesc
	} else {
		i.sortCol, i.sortDesc = col, false
	}
	i.sortRows()
}

// Sort is the active sort column, -1 when unsorted.
func (i *Instance) Sort() (col int, desc bool) {
	return i.sortCol, i.sortDesc
}

func (i *Instance) sortRows() {
	col := i.sortCol
	if col < 0 {
		return
	}
	sort.SliceStable(i.Rows, func(a, b int) bool {
		x, y := cell(i.Rows[a], col), cell(i.Rows[b], col)
		if i.sortDesc {
			x, y = y, x
		}
		return lessCell(x, y)
	})
}

func cell(r Row, col int) string {
	if col < len(r.Cells) {
		return r.Cells[col]
	}
	return ""
}

// lessCell compares numerically when both cells are numbers, ignoring group separators.
func lessCell(a, b string) bool {
	da, errA := decimal.NewFromString(strings.ReplaceAll(a, ",", ""))
	db, errB := decimal.NewFromString(strings.ReplaceAll(b, ",", ""))
	if errA == nil && errB == nil {
		return da.LessThan(db)
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

// Row returns the row at index.
func (i *Instance) Row(index int) (Row, bool) {
	if index < 0 || index >= len(i.Rows) {
		return Row{}, false
	}
	return i.Rows[index], true
}

// Title includes the parent's label on line-item screens.
func (i *Instance) Title() string {
	if i.Parent != nil && i.Parent.Label != "" {
		return i.Def.Title + " · " + i.Parent.Label
	}
	return i.Def.Title
}

// ParentID is the header id of a line-item screen, 0 otherwise.
func (i *Instance) ParentID() int64 {
	if i.Parent == nil {
		return 0
	}
	return i.Parent.ID
}
