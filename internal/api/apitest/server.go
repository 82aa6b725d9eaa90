// Package apitest runs an in-memory REST backend for tests.
package apitest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Record is one stored entity.
type Record = map[string]interface{}

// Call is a request the server received.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   Record
	Header http.Header
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend speaking the console's REST dialect.
type Server struct {
	*httptest.Server

	// Token is returned by POST /auth/login.
	Token string

	mu          sync.Mutex
	collections map[string]map[int64]Record
	lines       map[string]map[int64][]Record
	nextID      int64
	failures    map[string]failure
	calls       []Call
}

// New starts a server that is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Token:       "test-token",
		collections: map[string]map[int64]Record{},
		lines:       map[string]map[int64][]Record{},
		nextID:      1000,
		failures:    map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Record{"status": "live"})
	})
	r.Post("/auth/login", s.login)

	r.Route("/{coll}", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/export", s.export)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.remove)
		r.Get("/{id}/view", s.viewLines)
		r.Post("/{id}/items", s.createLine)
		r.Put("/{id}/items/{line}", s.updateLine)
		r.Delete("/{id}/items/{line}", s.removeLine)
		r.Post("/{id}/confirm", s.confirm)
	})
	return r
}

// Seed stores records under path. Records without an id get one.
func (s *Server) Seed(path string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collection(path)
	for _, rec := range records {
		id := toInt64(rec["id"])
		if id == 0 {
			s.nextID++
			id = s.nextID
		}
		rec["id"] = id
		coll[id] = rec
	}
}

// SeedLines stores the line items of one header.
func (s *Server) SeedLines(path string, headerID int64, lines ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines[path] == nil {
		s.lines[path] = map[int64][]Record{}
	}
	s.lines[path][headerID] = append(s.lines[path][headerID], lines...)
}

// Fail makes method on path answer status with message until cleared by another Fail with status 0.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " /" + strings.TrimLeft(path, "/")
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, message: message}
}

// Calls returns the received requests matching method and path prefix. An empty method matches all.
func (s *Server) Calls(method, pathPrefix string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := "/" + strings.TrimLeft(pathPrefix, "/")
	var out []Call
	for _, c := range s.calls {
		if (method == "" || c.Method == method) && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Records returns the stored records of path ordered by id.
func (s *Server) Records(path string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(path)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
		if r.Body != nil && r.ContentLength != 0 {
			var body Record
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				call.Body = body
			}
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, Record{"message": f.message})
			return
		}
		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), call.Body)))
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	if body["username"] == "" || body["username"] == nil {
		writeJSON(w, http.StatusUnauthorized, Record{"message": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, Record{"token": s.Token})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "coll")
	q := r.URL.Query()

	s.mu.Lock()
	items := filter(s.sorted(path), q)
	s.mu.Unlock()

	if q.Get("all") == "true" {
		writeJSON(w, http.StatusOK, items)
		return
	}

	total := len(items)
	size, _ := strconv.Atoi(q.Get("pageSize"))
	page, _ := strconv.Atoi(q.Get("pageNumber"))
	if size > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * size
		if start > total {
			start = total
		}
		end := start + size
		if end > total {
			end = total
		}
		items = items[start:end]
	}
	writeJSON(w, http.StatusOK, Record{"items": items, "totalSize": total})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "coll")
	s.mu.Lock()
	items := filter(s.sorted(path), r.URL.Query())
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "name"})
	for _, it := range items {
		cw.Write([]string{fmt.Sprint(it["id"]), fmt.Sprint(it["name"])})
	}
	cw.Flush()
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, ok := s.collection(chi.URLParam(r, "coll"))[idParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, Record{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	rec := Record{}
	for k, v := range bodyOf(r) {
		rec[k] = v
	}
	delete(rec, "id")
	s.Seed(chi.URLParam(r, "coll"), rec)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	path, id := chi.URLParam(r, "coll"), idParam(r, "id")
	s.mu.Lock()
	rec, ok := s.collection(path)[id]
	if ok {
		for k, v := range bodyOf(r) {
			rec[k] = v
		}
		rec["id"] = id
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, Record{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	path, id := chi.URLParam(r, "coll"), idParam(r, "id")
	s.mu.Lock()
	_, ok := s.collection(path)[id]
	delete(s.collection(path), id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, Record{"message": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) viewLines(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	lines := s.lines[chi.URLParam(r, "coll")][idParam(r, "id")]
	if lines == nil {
		lines = []Record{}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, Record{"items": lines})
}

// Lines returns the stored line items of one header.
func (s *Server) Lines(path string, headerID int64) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.lines[path][headerID]...)
}

func (s *Server) createLine(w http.ResponseWriter, r *http.Request) {
	path, id := chi.URLParam(r, "coll"), idParam(r, "id")
	rec := Record{}
	for k, v := range bodyOf(r) {
		rec[k] = v
	}
	s.mu.Lock()
	s.nextID++
	rec["id"] = s.nextID
	if s.lines[path] == nil {
		s.lines[path] = map[int64][]Record{}
	}
	s.lines[path][id] = append(s.lines[path][id], rec)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateLine(w http.ResponseWriter, r *http.Request) {
	path, id, line := chi.URLParam(r, "coll"), idParam(r, "id"), idParam(r, "line")
	s.mu.Lock()
	var found Record
	for _, l := range s.lines[path][id] {
		if toInt64(l["id"]) == line {
			found = l
			break
		}
	}
	if found != nil {
		for k, v := range bodyOf(r) {
			found[k] = v
		}
		found["id"] = line
	}
	s.mu.Unlock()
	if found == nil {
		writeJSON(w, http.StatusNotFound, Record{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) removeLine(w http.ResponseWriter, r *http.Request) {
	path, id, line := chi.URLParam(r, "coll"), idParam(r, "id"), idParam(r, "line")
	s.mu.Lock()
	kept := s.lines[path][id][:0]
	for _, l := range s.lines[path][id] {
		if toInt64(l["id"]) != line {
			kept = append(kept, l)
		}
	}
	if s.lines[path] != nil {
		s.lines[path][id] = kept
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	ids, _ := body["lineItemIds"].([]interface{})
	if len(ids) == 0 {
		writeJSON(w, http.StatusBadRequest, Record{"message": "no line items selected"})
		return
	}
	rec := Record{
		"quotation":               Record{"id": idParam(r, "id")},
		"extraCharges":            body["extraCharges"],
		"extraChargesDescription": body["extraChargesDescription"],
	}
	s.Seed("proforma-invoices", rec)
	writeJSON(w, http.StatusCreated, rec)
}

// collection must be called with mu held.
func (s *Server) collection(path string) map[int64]Record {
	if s.collections[path] == nil {
		s.collections[path] = map[int64]Record{}
	}
	return s.collections[path]
}

// sorted must be called with mu held.
func (s *Server) sorted(path string) []Record {
	coll := s.collection(path)
	ids := make([]int64, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, coll[id])
	}
	return out
}

var reserved = map[string]bool{"pageNumber": true, "pageSize": true, "all": true, "companyId": true}

// filter keeps records whose fields contain every filter value, case-insensitively.
func filter(items []Record, q url.Values) []Record {
	out := items[:0:0]
	for _, it := range items {
		keep := true
		for k := range q {
			if reserved[k] {
				continue
			}
			want := strings.ToLower(q.Get(k))
			got := strings.ToLower(fmt.Sprint(it[k]))
			if !strings.Contains(got, want) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}

func idParam(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type bodyKey struct{}

func withBody(ctx context.Context, body Record) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

// bodyOf returns the decoded JSON body; the recorder consumed the original.
func bodyOf(r *http.Request) Record {
	body, _ := r.Context().Value(bodyKey{}).(Record)
	if body == nil {
		return Record{}
	}
	return body
}
