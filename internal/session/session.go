package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikelcalvo/erp-console/internal/logger"
	"github.com/mikelcalvo/erp-console/internal/permission"
)

// ErrExpired is returned by CheckExpiry after it forced a logout.
var ErrExpired = errors.New("session expired, please log in again")

// Holder owns the access token and its decoded claims for the lifetime of the app.
type Holder struct {
	mu        sync.RWMutex
	store     Store
	log       *logger.Logger
	now       func() time.Time
	token     string
	claims    *Claims
	companies *Companies
}

// NewHolder restores the persisted session, if any.
func NewHolder(store Store, log *logger.Logger) (*Holder, error) {
	if log == nil {
		log = logger.Nop()
	}
	h := &Holder{
		store:     store,
		log:       log.Named("session"),
		now:       time.Now,
		companies: newCompanies(store),
	}

	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	if st.Cookie.Token == "" {
		return h, nil
	}

	claims := &Claims{}
	if len(st.Cookie.Claims) == 0 || json.Unmarshal(st.Cookie.Claims, claims) != nil {
		// A missing or unreadable blob is re-derived from the token.
		if claims, err = Decode(st.Cookie.Token); err != nil {
			h.log.Warn().Err(err).Msg("discarding unreadable persisted session")
			return h, store.Update(func(s *State) { s.Cookie = Cookie{} })
		}
	}

	h.token = st.Cookie.Token
	h.claims = claims
	if _, _, err := h.companies.Restore(claims.Companies); err != nil {
		return nil, err
	}
	return h, nil
}

// SetClock replaces the time source used for expiry checks.
func (h *Holder) SetClock(now func() time.Time) {
	h.mu.Lock()
	h.now = now
	h.mu.Unlock()
}

// Login stores the token and its decoded claims and re-applies the company selection.
func (h *Holder) Login(token string) (*Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to encode claims: %w", err)
	}
	if err := h.store.Update(func(s *State) {
		s.Cookie = Cookie{Token: token, Claims: blob}
	}); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.token = token
	h.claims = claims
	h.mu.Unlock()

	if _, _, err := h.companies.Restore(claims.Companies); err != nil {
		return nil, err
	}

	h.log.Info().Str("user", claims.DisplayName()).Msg("logged in")
	return claims, nil
}

// Logout clears the token, the claims and the company selection.
func (h *Holder) Logout() error {
	h.mu.Lock()
	user := h.claims.DisplayName()
	h.token = ""
	h.claims = nil
	h.mu.Unlock()

	if err := h.store.Update(func(s *State) { s.Cookie = Cookie{} }); err != nil {
		return err
	}
	if err := h.companies.Clear(); err != nil {
		return err
	}

	h.log.Info().Str("user", user).Msg("logged out")
	return nil
}

// Token returns the current token, if any.
func (h *Holder) Token() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.token != ""
}

// Claims returns the decoded claims, if any.
func (h *Holder) Claims() (*Claims, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.claims, h.claims != nil
}

// Authenticated reports whether a token is held.
func (h *Holder) Authenticated() bool {
	_, ok := h.Token()
	return ok
}

// CheckExpiry logs out and returns ErrExpired when the held token's exp is in the past.
func (h *Holder) CheckExpiry() error {
	h.mu.RLock()
	expired := h.token != "" && h.claims.Expired(h.now())
	h.mu.RUnlock()

	if !expired {
		return nil
	}
	h.log.Info().Str("reason", "expired").Msg("forcing logout")
	if err := h.Logout(); err != nil {
		return err
	}
	return ErrExpired
}

// Gate is the permission gate for the current claims.
func (h *Holder) Gate() permission.Gate {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.claims == nil {
		return permission.Gate{}
	}
	return permission.NewGate(h.claims.Permissions)
}

// Companies is the active-company context.
func (h *Holder) Companies() *Companies {
	return h.companies
}
