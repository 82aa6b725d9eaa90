package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/permission"
)

func mintToken(t *testing.T, exp time.Time, companies ...int64) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:        "Asha Rao",
		Username:    "asha",
		Roles:       []string{"sales"},
		Permissions: []string{"customer.view", "customer.create"},
		Companies:   companies,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := Decode(mintToken(t, exp, 3, 7))
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", claims.DisplayName())
	assert.Equal(t, []int64{3, 7}, claims.Companies)
	assert.True(t, claims.ExpiresAtTime().Equal(exp))
	assert.True(t, claims.Permits(7))
	assert.False(t, claims.Permits(9))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Decode("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHolder_LoginLogout(t *testing.T) {
	store := &MemoryStore{}
	h, err := NewHolder(store, nil)
	require.NoError(t, err)
	assert.False(t, h.Authenticated())
	assert.False(t, h.Gate().Has("customer.view"))

	token := mintToken(t, time.Now().Add(time.Hour), 5)
	claims, err := h.Login(token)
	require.NoError(t, err)
	assert.Equal(t, "asha", claims.Username)

	got, ok := h.Token()
	assert.True(t, ok)
	assert.Equal(t, token, got)
	assert.True(t, h.Gate().Has(permission.For("customer", permission.Create)))

	id, ok := h.Companies().Current()
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	require.NoError(t, h.Logout())
	_, ok = h.Token()
	assert.False(t, ok)
	_, ok = h.Claims()
	assert.False(t, ok)
	_, ok = h.Companies().Current()
	assert.False(t, ok)

	st, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Cookie.Token)
	assert.Nil(t, st.Local.CompanyID)
}

func TestHolder_CheckExpiryForcesLogout(t *testing.T) {
	h, err := NewHolder(&MemoryStore{}, nil)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time { return now })

	_, err = h.Login(mintToken(t, now.Add(time.Minute), 1))
	require.NoError(t, err)
	assert.NoError(t, h.CheckExpiry())

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, h.CheckExpiry(), ErrExpired)
	assert.False(t, h.Authenticated())

	// Nothing left to expire.
	assert.NoError(t, h.CheckExpiry())
}

func TestHolder_RestoresAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	h, err := NewHolder(NewFileStore(path), nil)
	require.NoError(t, err)
	_, err = h.Login(mintToken(t, time.Now().Add(time.Hour), 11, 12))
	require.NoError(t, err)

	reloaded, err := NewHolder(NewFileStore(path), nil)
	require.NoError(t, err)
	claims, ok := reloaded.Claims()
	require.True(t, ok)
	assert.Equal(t, "Asha Rao", claims.Name)

	id, ok := reloaded.Companies().Current()
	assert.True(t, ok)
	assert.Equal(t, int64(11), id)
}

func TestCompanies_DefaultsToFirstPermittedAndSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	c := newCompanies(NewFileStore(path))
	id, ok, err := c.Restore([]int64{4, 8})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	require.NoError(t, c.Select(8))

	again := newCompanies(NewFileStore(path))
	id, ok, err = again.Restore([]int64{4, 8})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(8), id)
}

func TestCompanies_StoredButNoLongerPermitted(t *testing.T) {
	store := &MemoryStore{}
	stale := int64(99)
	require.NoError(t, store.Update(func(s *State) { s.Local.CompanyID = &stale }))

	c := newCompanies(store)
	id, ok, err := c.Restore([]int64{2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestCompanies_SelectRejectsUnknownAndNotifies(t *testing.T) {
	c := newCompanies(&MemoryStore{})
	_, _, err := c.Restore([]int64{1, 2})
	require.NoError(t, err)

	var seen []int64
	c.OnChange(func(id int64, ok bool) {
		if ok {
			seen = append(seen, id)
		}
	})

	assert.ErrorIs(t, c.Select(3), ErrCompanyNotPermitted)
	require.NoError(t, c.Select(2))
	assert.Equal(t, []int64{2}, seen)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))
	st, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Cookie.Token)
}

func TestFileStore_UpdateReplacesFileWholesale(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	s := NewFileStore(filepath.Join(dir, "state.json"))

	id := int64(4)
	require.NoError(t, s.Update(func(st *State) { st.Cookie.Token = "first-token-that-is-long" }))
	require.NoError(t, s.Update(func(st *State) {
		st.Cookie.Token = "t2"
		st.Local.CompanyID = &id
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "state.json", entries[0].Name())

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	st, err := NewFileStore(s.Path()).Load()
	require.NoError(t, err)
	assert.Equal(t, "t2", st.Cookie.Token)
	require.NotNil(t, st.Local.CompanyID)
	assert.Equal(t, id, *st.Local.CompanyID)
}
