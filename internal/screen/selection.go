package screen

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/query"
)

// ErrNothingSelected blocks a selection submit with no checked items.
var ErrNothingSelected = errors.New("select at least one line item")

// ErrInvalidCharges is returned for extra charges that are not a non-negative number.
var ErrInvalidCharges = errors.New("extra charges must be a number of 0 or more")

// SelectionItem is one checkbox of a selection modal.
type SelectionItem struct {
	ID      int64
	Label   string
	Checked bool
}

// SelectionRequest is the derived payload of a selection submit.
type SelectionRequest struct {
	IDs          []int64
	ExtraCharges decimal.Decimal
	Description  string
}

// Selection configures a composite confirm action over a row's line items.
type Selection struct {
	Label       string
	Title       string
	Invalidates []query.Key
	Load        func(ctx context.Context, row Row) ([]SelectionItem, error)
	Submit      func(ctx context.Context, row Row, req SelectionRequest) error
}

// SelectionModal is the open state of a Selection.
type SelectionModal struct {
	Sel          *Selection
	Row          Row
	Items        []SelectionItem
	Cursor       int
	ExtraCharges string
	Description  string
	Notice       string
	Busy         bool
	Open         bool
}

// NewSelectionModal opens sel for row with items unchecked.
func NewSelectionModal(sel *Selection, row Row, items []SelectionItem) *SelectionModal {
	return &SelectionModal{Sel: sel, Row: row, Items: items, Open: true}
}

// Toggle flips the item at index.
func (s *SelectionModal) Toggle(index int) {
	if index >= 0 && index < len(s.Items) {
		s.Items[index].Checked = !s.Items[index].Checked
		s.Notice = ""
	}
}

// AllChecked reports whether every item is checked.
func (s *SelectionModal) AllChecked() bool {
	if len(s.Items) == 0 {
		return false
	}
	for _, it := range s.Items {
		if !it.Checked {
			return false
		}
	}
	return true
}

// ToggleAll checks every item, or clears them all when all are checked.
func (s *SelectionModal) ToggleAll() {
	check := !s.AllChecked()
	for i := range s.Items {
		s.Items[i].Checked = check
	}
	s.Notice = ""
}

// Selected are the checked item ids in display order.
func (s *SelectionModal) Selected() []int64 {
	var ids []int64
	for _, it := range s.Items {
		if it.Checked {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Prepare derives the request. Blank extra charges default to 0 and a blank
// description to the default label.
func (s *SelectionModal) Prepare() (SelectionRequest, error) {
	if s.Busy {
		return SelectionRequest{}, ErrBusy
	}
	ids := s.Selected()
	if len(ids) == 0 {
		s.Notice = "Select at least one line item"
		return SelectionRequest{}, ErrNothingSelected
	}

	charges := decimal.Zero
	if raw := strings.TrimSpace(s.ExtraCharges); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			s.Notice = "Extra charges must be a number of 0 or more"
			return SelectionRequest{}, ErrInvalidCharges
		}
		charges = d
	}
	desc := strings.TrimSpace(s.Description)
	if desc == "" {
		desc = api.DefaultExtraChargesDescription
	}

	s.Busy = true
	return SelectionRequest{IDs: ids, ExtraCharges: charges, Description: desc}, nil
}

// Run submits req and invalidates the selection's keys on success.
func (s *SelectionModal) Run(ctx context.Context, cache *query.Cache, req SelectionRequest) error {
	m := query.Mutation[SelectionRequest, struct{}]{
		Cache:       cache,
		Invalidates: s.Sel.Invalidates,
		Run: func(ctx context.Context, req SelectionRequest) (struct{}, error) {
			return struct{}{}, s.Sel.Submit(ctx, s.Row, req)
		},
	}
	_, err := m.Mutate(ctx, req, query.Options[struct{}]{})
	return err
}

// Resolve applies the outcome of Run.
func (s *SelectionModal) Resolve(err error) (string, bool) {
	s.Busy = false
	if err != nil {
		s.Notice = api.UserMessage(err)
		return s.Notice, false
	}
	s.Open = false
	return s.Sel.Label + " completed successfully", true
}

// Submit prepares, runs and resolves in one call.
func (s *SelectionModal) Submit(ctx context.Context, cache *query.Cache) (string, error) {
	req, err := s.Prepare()
	if err != nil {
		return s.Notice, err
	}
	err = s.Run(ctx, cache, req)
	notice, _ := s.Resolve(err)
	return notice, err
}
