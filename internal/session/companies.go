package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCompanyNotPermitted is returned when selecting a company outside the claims.
var ErrCompanyNotPermitted = errors.New("company not permitted for this user")

// Companies is the active-company context. It is only changed through Restore, Select and Clear.
type Companies struct {
	mu        sync.RWMutex
	store     Store
	permitted []int64
	current   int64
	set       bool
	listeners []func(id int64, ok bool)
}

func newCompanies(store Store) *Companies {
	return &Companies{store: store}
}

// Restore re-applies the persisted selection. When nothing usable was stored,
// the first permitted company is selected and persisted.
func (c *Companies) Restore(permitted []int64) (int64, bool, error) {
	st, err := c.store.Load()
	if err != nil {
		return 0, false, err
	}

	c.mu.Lock()
	c.permitted = append([]int64(nil), permitted...)
	stored := st.Local.CompanyID
	switch {
	case stored != nil && c.allowed(*stored):
		c.current, c.set = *stored, true
		c.mu.Unlock()
		c.notify(*stored, true)
		return *stored, true, nil
	case len(permitted) == 0:
		c.current, c.set = 0, false
		c.mu.Unlock()
		return 0, false, nil
	}
	c.mu.Unlock()

	id := permitted[0]
	if err := c.Select(id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Select persists id as the active company and notifies listeners.
func (c *Companies) Select(id int64) error {
	c.mu.RLock()
	ok := c.allowed(id)
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrCompanyNotPermitted, id)
	}

	if err := c.store.Update(func(s *State) { s.Local.CompanyID = &id }); err != nil {
		return err
	}

	c.mu.Lock()
	c.current, c.set = id, true
	c.mu.Unlock()
	c.notify(id, true)
	return nil
}

// Current is the selected company id, if any.
func (c *Companies) Current() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.set
}

// Permitted lists the companies the current claims allow.
func (c *Companies) Permitted() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int64(nil), c.permitted...)
}

// Clear drops the selection, persisted and in memory.
func (c *Companies) Clear() error {
	if err := c.store.Update(func(s *State) { s.Local.CompanyID = nil }); err != nil {
		return err
	}
	c.mu.Lock()
	c.current, c.set = 0, false
	c.permitted = nil
	c.mu.Unlock()
	c.notify(0, false)
	return nil
}

// OnChange registers fn to run after every selection change.
func (c *Companies) OnChange(fn func(id int64, ok bool)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// allowed must be called with mu held. An empty permitted list allows nothing.
func (c *Companies) allowed(id int64) bool {
	for _, p := range c.permitted {
		if p == id {
			return true
		}
	}
	return false
}

func (c *Companies) notify(id int64, ok bool) {
	c.mu.RLock()
	listeners := append([]func(int64, bool){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(id, ok)
	}
}
