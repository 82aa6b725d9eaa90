package screen

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/query"
)

// Mode is what a modal submits.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
	ModeDelete
)

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("submission in progress")

// Modal is the create, edit or delete dialog of a screen.
type Modal struct {
	Def    *Definition
	Parent int64
	Mode   Mode
	Open   bool
	Row    *Row
	Form   *form.Form
	Notice string
	Busy   bool
}

// NewModal returns a closed modal for def. parent is the header id on line-item screens.
func NewModal(def *Definition, parent int64) *Modal {
	return &Modal{Def: def, Parent: parent, Form: form.New(def.Fields)}
}

// OpenCreate opens a blank form.
func (m *Modal) OpenCreate() {
	m.Mode, m.Row, m.Open, m.Notice, m.Busy = ModeCreate, nil, true, "", false
	m.Form.Reset()
}

// OpenEdit opens the form pre-filled from row.
func (m *Modal) OpenEdit(row Row) {
	m.Mode, m.Row, m.Open, m.Notice, m.Busy = ModeEdit, &row, true, "", false
	m.Form.Prefill(m.Def.Prefill(row))
}

// OpenDelete opens the confirmation for row.
func (m *Modal) OpenDelete(row Row) {
	m.Mode, m.Row, m.Open, m.Notice, m.Busy = ModeDelete, &row, true, "", false
}

// Close dismisses the modal without submitting.
func (m *Modal) Close() {
	m.Open, m.Busy, m.Notice = false, false, ""
}

// Title is the dialog heading.
func (m *Modal) Title() string {
	switch m.Mode {
	case ModeEdit:
		return "Edit " + m.Def.Noun
	case ModeDelete:
		return "Delete " + m.Def.Noun
	default:
		return "New " + m.Def.Noun
	}
}

// Message is the delete confirmation naming the record.
func (m *Modal) Message() string {
	label := ""
	if m.Row != nil {
		label = m.Row.Label
	}
	if label == "" {
		return fmt.Sprintf("Are you sure you want to delete this %s?", m.Def.Singular())
	}
	return fmt.Sprintf("Are you sure you want to delete %s %q?", m.Def.Singular(), label)
}

// Submission is a validated modal submit, ready to run off the UI loop.
type Submission struct {
	Mode    Mode
	ID      int64
	Payload api.Payload
	Row     Row

	def    *Definition
	parent int64
}

// Prepare validates the form and snapshots what to send. Validation
// failures are returned as form.Errors and nothing is sent.
func (m *Modal) Prepare() (*Submission, error) {
	if m.Busy {
		return nil, ErrBusy
	}
	s := &Submission{Mode: m.Mode, def: m.Def, parent: m.Parent}
	if m.Row != nil {
		s.Row = *m.Row
		s.ID = m.Row.ID
	}

	if m.Mode != ModeDelete {
		payload, err := m.Form.Payload()
		if err != nil {
			return nil, err
		}
		s.Payload = payload
		// A row with an identity always updates.
		if s.ID != 0 {
			s.Mode = ModeEdit
		} else {
			s.Mode = ModeCreate
		}
	}
	m.Busy = true
	return s, nil
}

// Run performs the mutation and invalidates the screen's keys on success.
func (s *Submission) Run(ctx context.Context, cache *query.Cache) error {
	m := query.Mutation[*Submission, struct{}]{
		Cache:       cache,
		Invalidates: s.def.Keys(),
		Run: func(ctx context.Context, s *Submission) (struct{}, error) {
			switch s.Mode {
			case ModeDelete:
				if s.def.remove == nil {
					return struct{}{}, fmt.Errorf("%s cannot be deleted", s.def.Singular())
				}
				return struct{}{}, s.def.remove(ctx, s.parent, s.Row)
			case ModeEdit:
				if s.def.update == nil {
					return struct{}{}, fmt.Errorf("%s cannot be edited", s.def.Singular())
				}
				return struct{}{}, s.def.update(ctx, s.parent, s.ID, s.Payload)
			default:
				if s.def.create == nil {
					return struct{}{}, fmt.Errorf("%s cannot be created", s.def.Singular())
				}
				return struct{}{}, s.def.create(ctx, s.parent, s.Payload)
			}
		},
	}
	_, err := m.Mutate(ctx, s, query.Options[struct{}]{})
	return err
}

// SuccessNotice is the notice shown after s succeeded.
func (s *Submission) SuccessNotice() string {
	switch s.Mode {
	case ModeDelete:
		return s.def.Noun + " deleted successfully"
	case ModeEdit:
		return s.def.Noun + " updated successfully"
	default:
		return s.def.Noun + " created successfully"
	}
}

// Resolve applies the outcome of s. Success closes the modal and resets a
// create form. Failure keeps it open with the user-facing message.
func (m *Modal) Resolve(s *Submission, err error) (notice string, ok bool) {
	m.Busy = false
	if err != nil {
		m.Notice = api.UserMessage(err)
		return m.Notice, false
	}
	if s.Mode == ModeCreate {
		m.Form.Reset()
	}
	m.Open = false
	m.Notice = ""
	return s.SuccessNotice(), true
}

// Submit prepares, runs and resolves in one call.
func (m *Modal) Submit(ctx context.Context, cache *query.Cache) (string, error) {
	s, err := m.Prepare()
	if err != nil {
		return "", err
	}
	err = s.Run(ctx, cache)
	notice, _ := m.Resolve(s, err)
	return notice, err
}
