// Package konnecttest provides an in-memory Service Hub API for tests.
package konnecttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/lucad87test-org/kong-test/internal/konnect"
)

// Token is the bearer token the fake server accepts.
const Token = "konnecttest-token"

// Deletion records one DELETE request the server received.
type Deletion struct {
	Kind   string // "service" or "instance"
	ID     string
	Status int
}

// Server is a fake Service Hub API backed by maps. Resources are listed in
// insertion order.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	services   []konnect.Service
	instances  []konnect.IntegrationInstance
	listFail   map[string]int // path -> status
	deleteFail map[string]int // id -> status
	deletions  []Deletion
	listCalls  int
	noPaging   bool
}

// NewServer starts a fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		listFail:   map[string]int{},
		deleteFail: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /servicehub/v1/services", s.handleListServices)
	mux.HandleFunc("DELETE /servicehub/v1/services/{id}", s.handleDeleteService)
	mux.HandleFunc("GET /servicehub/v1/integration-instances", s.handleListInstances)
	mux.HandleFunc("DELETE /servicehub/v1/integration-instances/{id}", s.handleDeleteInstance)

	s.Server = httptest.NewServer(s.requireToken(mux))
	t.Cleanup(s.Close)
	return s
}

// APIClient returns a konnect client pointed at the server with generous pacing.
func (s *Server) APIClient(t testing.TB) *konnect.Client {
	t.Helper()

	c, err := konnect.New(konnect.Config{
		BaseURL:  s.URL,
		Token:    Token,
		RPS:      10000,
		Burst:    100,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("konnect.New: %v", err)
	}
	return c
}

// AddService stores a service.
func (s *Server) AddService(svc konnect.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, svc)
}

// AddInstance stores an integration instance.
func (s *Server) AddInstance(inst konnect.IntegrationInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, inst)
}

// FailList makes GET on path ("/servicehub/v1/services", ...) answer status.
func (s *Server) FailList(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFail[path] = status
}

// FailDelete makes DELETE of id answer status. The resource is only removed when
// status is 204.
func (s *Server) FailDelete(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteFail[id] = status
}

// IgnorePaging makes list calls answer the first page whatever page is asked
// for, still reporting the full total.
func (s *Server) IgnorePaging() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noPaging = true
}

// Deletions returns every DELETE received, in order.
func (s *Server) Deletions() []Deletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletions)
}

// ListCalls returns the number of GET requests served.
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// ServiceIDs returns the ids of services still stored.
func (s *Server) ServiceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.services))
	for _, svc := range s.services {
		ids = append(ids, svc.ID)
	}
	return ids
}

// InstanceIDs returns the ids of integration instances still stored.
func (s *Server) InstanceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.instances))
	for _, inst := range s.instances {
		ids = append(ids, inst.ID)
	}
	return ids
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.listCalls++
	status, fail := s.listFail[r.URL.Path]
	items := slices.Clone(s.services)
	noPaging := s.noPaging
	s.mu.Unlock()

	if fail {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	writePage(w, r, items, noPaging)
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.listCalls++
	status, fail := s.listFail[r.URL.Path]
	items := slices.Clone(s.instances)
	noPaging := s.noPaging
	s.mu.Unlock()

	if fail {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	writePage(w, r, items, noPaging)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.deleteStatusLocked(id, slices.IndexFunc(s.services, func(svc konnect.Service) bool { return svc.ID == id }))
	if status == http.StatusNoContent {
		s.services = slices.DeleteFunc(s.services, func(svc konnect.Service) bool { return svc.ID == id })
	}
	s.deletions = append(s.deletions, Deletion{Kind: "service", ID: id, Status: status})
	w.WriteHeader(status)
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.deleteStatusLocked(id, slices.IndexFunc(s.instances, func(inst konnect.IntegrationInstance) bool { return inst.ID == id }))
	if status == http.StatusNoContent {
		s.instances = slices.DeleteFunc(s.instances, func(inst konnect.IntegrationInstance) bool { return inst.ID == id })
	}
	s.deletions = append(s.deletions, Deletion{Kind: "instance", ID: id, Status: status})
	w.WriteHeader(status)
}

func (s *Server) deleteStatusLocked(id string, index int) int {
	if status, ok := s.deleteFail[id]; ok {
		return status
	}
	if index < 0 {
		return http.StatusNotFound
	}
	return http.StatusNoContent
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, noPaging bool) {
	size := atoiOr(r.URL.Query().Get("page[size]"), len(items))
	number := atoiOr(r.URL.Query().Get("page[number]"), 1)
	if noPaging {
		number = 1
	}
	if size <= 0 {
		size = max(len(items), 1)
	}
	if number <= 0 {
		number = 1
	}
	if items == nil {
		items = []T{}
	}

	start := min((number-1)*size, len(items))
	end := min(start+size, len(items))

	writeJSON(w, http.StatusOK, map[string]any{
		"data": items[start:end],
		"meta": map[string]any{
			"page": konnect.PageMeta{Number: number, Size: size, Total: len(items)},
		},
	})
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
