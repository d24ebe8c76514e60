package browser

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucad87test-org/kong-test/internal/config"
)

// fixtureDateLayout matches how the catalog tables render dates.
const fixtureDateLayout = "Jan 2, 2006, 3:04 PM"

// FixtureCatalog is a local stand-in for the Service Catalog UI. It renders
// the same test ids, table markup and card grid as the hosted app so page
// objects can be exercised without an account.
type FixtureCatalog struct {
	Accounts config.Accounts

	mu        sync.Mutex
	services  []fixtureService
	instances []fixtureInstance
	resources []fixtureResource
	mapCalls  []string
}

type fixtureService struct {
	ID      string
	Name    string
	Created time.Time
}

type fixtureInstance struct {
	ID          string
	DisplayName string
}

type fixtureResource struct {
	ID       string
	Name     string
	Instance string
	Ingested time.Time
	Mapped   []string
}

// NewFixtureCatalog returns an empty catalog for the default accounts.
func NewFixtureCatalog() *FixtureCatalog {
	return &FixtureCatalog{Accounts: config.FromEnv().Accounts}
}

// Reset drops every entity.
func (c *FixtureCatalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = nil
	c.instances = nil
	c.resources = nil
	c.mapCalls = nil
}

// AddService stores a service created now and returns its id.
func (c *FixtureCatalog) AddService(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.services = append(c.services, fixtureService{ID: id, Name: name, Created: time.Now()})
	return id
}

// MapCalls returns the resource ids the mapping endpoint was called for.
func (c *FixtureCatalog) MapCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.mapCalls)
}

// Handler serves the fixture UI and its API.
func (c *FixtureCatalog) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /service-catalog", c.handleServices)
	mux.HandleFunc("GET /service-catalog/{id}", c.handleServiceDetail)
	mux.HandleFunc("GET /service-catalog/integrations", c.handleIntegrations)
	mux.HandleFunc("GET /service-catalog/integrations/github/instances", c.handleGitHubInstances)
	mux.HandleFunc("GET /service-catalog/integrations/github/instances/new", c.handleNewInstance)
	mux.HandleFunc("GET /service-catalog/integrations/github/instances/{id}", c.handleInstance)
	mux.HandleFunc("GET /service-catalog/resources/resources-list", c.handleResources)
	mux.HandleFunc("GET /dialog", c.handleDialog)

	mux.HandleFunc("GET /v1/notifications/inbox", func(w http.ResponseWriter, _ *http.Request) {
		writeFixtureJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	mux.HandleFunc("POST /api/services", c.handleCreateService)
	mux.HandleFunc("POST /api/instances", c.handleCreateInstance)
	mux.HandleFunc("POST /servicehub/v1/resources/{id}/services", c.handleMapResource)
	return mux
}

// =============================================================================
// Pages
// =============================================================================

type serviceRow struct {
	ID, ShortID, Name, Created string
	Resources                  int
}

func (c *FixtureCatalog) serviceRowsLocked() []serviceRow {
	rows := make([]serviceRow, 0, len(c.services))
	for _, s := range c.services {
		n := 0
		for _, r := range c.resources {
			if slices.Contains(r.Mapped, s.ID) {
				n++
			}
		}
		rows = append(rows, serviceRow{
			ID:        s.ID,
			ShortID:   strings.ReplaceAll(s.ID, "-", "")[:8],
			Name:      s.Name,
			Created:   s.Created.Format(fixtureDateLayout),
			Resources: n,
		})
	}
	return rows
}

func (c *FixtureCatalog) handleServices(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	data := map[string]any{"Accounts": c.Accounts, "Services": c.serviceRowsLocked()}
	c.mu.Unlock()
	render(w, "services", data)
}

func (c *FixtureCatalog) handleServiceDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c.mu.Lock()
	var found *serviceRow
	for _, row := range c.serviceRowsLocked() {
		if row.ID == id {
			found = &row
			break
		}
	}
	c.mu.Unlock()
	if found == nil {
		http.NotFound(w, r)
		return
	}
	render(w, "service", map[string]any{"Accounts": c.Accounts, "Service": found})
}

func (c *FixtureCatalog) handleIntegrations(w http.ResponseWriter, _ *http.Request) {
	render(w, "integrations", map[string]any{"Accounts": c.Accounts})
}

func (c *FixtureCatalog) handleGitHubInstances(w http.ResponseWriter, _ *http.Request) {
	render(w, "instances", map[string]any{"Accounts": c.Accounts})
}

func (c *FixtureCatalog) handleNewInstance(w http.ResponseWriter, _ *http.Request) {
	name := "GitHub-" + strings.ToUpper(uuid.NewString()[:4])
	render(w, "new-instance", map[string]any{"Accounts": c.Accounts, "Name": name})
}

type resourceRow struct {
	ID, Name, Instance, Status, Ingested string
}

func (c *FixtureCatalog) resourceRowsLocked(instance string) []resourceRow {
	var rows []resourceRow
	for _, r := range c.resources {
		if instance != "" && r.Instance != instance {
			continue
		}
		status := "Unmapped"
		switch n := len(r.Mapped); {
		case n == 1:
			status = "1 Service"
		case n > 1:
			status = strconv.Itoa(n) + " Services"
		}
		rows = append(rows, resourceRow{
			ID:       r.ID,
			Name:     r.Name,
			Instance: r.Instance,
			Status:   status,
			Ingested: r.Ingested.Format(fixtureDateLayout),
		})
	}
	return rows
}

func (c *FixtureCatalog) handleInstance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c.mu.Lock()
	idx := slices.IndexFunc(c.instances, func(i fixtureInstance) bool { return i.ID == id })
	var data map[string]any
	if idx >= 0 {
		inst := c.instances[idx]
		data = map[string]any{
			"Accounts":  c.Accounts,
			"Instance":  inst,
			"Resources": c.resourceRowsLocked(inst.DisplayName),
		}
	}
	c.mu.Unlock()
	if data == nil {
		http.NotFound(w, r)
		return
	}
	render(w, "instance", data)
}

func (c *FixtureCatalog) handleResources(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	data := map[string]any{
		"Accounts":  c.Accounts,
		"Resources": c.resourceRowsLocked(""),
		"Services":  c.serviceRowsLocked(),
	}
	c.mu.Unlock()
	render(w, "resources", data)
}

func (c *FixtureCatalog) handleDialog(w http.ResponseWriter, _ *http.Request) {
	render(w, "dialog", nil)
}

// =============================================================================
// API
// =============================================================================

func (c *FixtureCatalog) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeFixtureJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	id := c.AddService(strings.TrimSpace(body.Name))
	writeFixtureJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleCreateInstance saves an authorized GitHub instance and ingests the
// configured repository as an unmapped resource.
func (c *FixtureCatalog) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DisplayName == "" {
		writeFixtureJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name is required"})
		return
	}

	c.mu.Lock()
	inst := fixtureInstance{ID: uuid.NewString(), DisplayName: body.DisplayName}
	c.instances = append(c.instances, inst)
	c.resources = append(c.resources, fixtureResource{
		ID:       uuid.NewString(),
		Name:     c.Accounts.GitHubRepo,
		Instance: inst.DisplayName,
		Ingested: time.Now(),
	})
	c.mu.Unlock()

	writeFixtureJSON(w, http.StatusCreated, map[string]string{"id": inst.ID})
}

func (c *FixtureCatalog) handleMapResource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var body struct {
		ServiceID string `json:"service_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ServiceID == "" {
		writeFixtureJSON(w, http.StatusBadRequest, map[string]string{"error": "service_id is required"})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapCalls = append(c.mapCalls, id)
	idx := slices.IndexFunc(c.resources, func(res fixtureResource) bool { return res.ID == id })
	if idx < 0 {
		writeFixtureJSON(w, http.StatusNotFound, map[string]string{"error": "resource not found"})
		return
	}
	if !slices.Contains(c.resources[idx].Mapped, body.ServiceID) {
		c.resources[idx].Mapped = append(c.resources[idx].Mapped, body.ServiceID)
	}
	writeFixtureJSON(w, http.StatusCreated, map[string]string{"resource_id": id, "service_id": body.ServiceID})
}

func writeFixtureJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fixtureTemplates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
