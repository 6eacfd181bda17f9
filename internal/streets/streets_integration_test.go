package streets_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/middleware"
	"github.com/portedaporte/tractage-backend/internal/selection"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"github.com/portedaporte/tractage-backend/internal/zones"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/streets/).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true

	// Set up tables (idempotent).
	streets.Init()
	zones.Init()

	// Mount routes on a Chi router, matching production setup in main.go.
	events := stream.NewHub()
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware)
	r.Mount("/streets", streets.SetupRoutes(events))
	r.Mount("/selection", selection.SetupRoutes(events, nil))

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

// createTestStreet inserts a street with one segment per side and registers a
// cleanup function to remove them.
func createTestStreet(t *testing.T) streets.Street {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	evenStart, evenEnd := 2, 20
	oddStart, oddEnd := 1, 19
	street := streets.Street{
		ID:   uuid.New(),
		Name: fmt.Sprintf("Rue de Test %s", uuid.New().String()[:8]),
		Geometry: streets.NewGeometry(orb.LineString{
			{4.83, 45.75}, {4.831, 45.751},
		}),
		Segments: []streets.Segment{
			{ID: uuid.New(), NumberStart: &evenStart, NumberEnd: &evenEnd, Side: streets.SideEven, BuildingType: streets.BuildingHouses},
			{ID: uuid.New(), NumberStart: &oddStart, NumberEnd: &oddEnd, Side: streets.SideOdd, BuildingType: streets.BuildingHouses},
		},
	}
	if err := db.DB.Create(&street).Error; err != nil {
		t.Fatalf("failed to create test street: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("street_id = ?", street.ID).Delete(&streets.Segment{})
		db.DB.Where("id = ?", street.ID).Delete(&streets.Street{})
	})

	return street
}

func createTestZone(t *testing.T) zones.Zone {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	zone := zones.Zone{
		ID:    uuid.New(),
		Name:  fmt.Sprintf("Zone Test %s", uuid.New().String()[:8]),
		Color: "#123456",
	}
	if err := db.DB.Create(&zone).Error; err != nil {
		t.Fatalf("failed to create test zone: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("id = ?", zone.ID).Delete(&zones.Zone{})
	})

	return zone
}

// newClientWithJar returns an http.Client with a fresh cookie jar so the
// issued session_id cookie carries between requests.
func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{Jar: jar}
}

// readBody reads and returns the response body as a string, draining and closing it.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func postJSON(t *testing.T, client *http.Client, path string, payload interface{}) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := client.Post(testServer.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// TestSearchFindsSeededStreet verifies that GET /streets?q= matches the
// street name accent-insensitively and returns nested segments.
func TestSearchFindsSeededStreet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	street := createTestStreet(t)
	client := newClientWithJar(t)

	resp, err := client.Get(testServer.URL + "/streets?q=" + street.Name[len(street.Name)-8:])
	if err != nil {
		t.Fatalf("GET /streets: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}

	var results []streets.Street
	if err := json.Unmarshal([]byte(body), &results); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 street, got %d", len(results))
	}
	if len(results[0].Segments) != 2 {
		t.Errorf("expected nested segments, got %d", len(results[0].Segments))
	}
}

// TestAssignFlow walks the selection workflow end to end: toggle both
// segments, assign them to a zone, and verify the rows were written and the
// selection cleared.
func TestAssignFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	street := createTestStreet(t)
	zone := createTestZone(t)
	client := newClientWithJar(t)

	for _, seg := range street.Segments {
		resp := postJSON(t, client, "/selection/toggle", map[string]interface{}{
			"id":    seg.ID,
			"multi": true,
		})
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("toggle failed: %d %s", resp.StatusCode, body)
		}
	}

	resp := postJSON(t, client, "/selection/assign", map[string]interface{}{
		"zone": zone.ID.String(),
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign failed: %d %s", resp.StatusCode, body)
	}

	var result struct {
		Assigned []uuid.UUID `json:"assigned"`
	}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	if len(result.Assigned) != 2 {
		t.Fatalf("expected 2 assigned segments, got %d", len(result.Assigned))
	}

	var count int64
	if err := db.DB.Model(&streets.Segment{}).
		Where("street_id = ? AND zone_id = ?", street.ID, zone.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 2 {
		t.Errorf("expected both segments assigned in DB, found %d", count)
	}

	// Selection cleared on success.
	curResp, err := client.Get(testServer.URL + "/selection/")
	if err != nil {
		t.Fatalf("GET /selection/: %v", err)
	}
	curBody := readBody(t, curResp)
	var current struct {
		Selected []uuid.UUID `json:"selected"`
	}
	if err := json.Unmarshal([]byte(curBody), &current); err != nil {
		t.Fatalf("invalid JSON body: %s", curBody)
	}
	if len(current.Selected) != 0 {
		t.Errorf("expected empty selection after assign, got %d", len(current.Selected))
	}
}

// TestAssignRequiresTargetZone verifies that assigning without a chosen zone
// fails with 400 and writes nothing.
func TestAssignRequiresTargetZone(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	street := createTestStreet(t)
	client := newClientWithJar(t)

	resp := postJSON(t, client, "/selection/toggle", map[string]interface{}{
		"id": street.Segments[0].ID,
	})
	readBody(t, resp)

	assignResp := postJSON(t, client, "/selection/assign", map[string]string{})
	body := readBody(t, assignResp)
	if assignResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d; body: %s", assignResp.StatusCode, body)
	}

	var count int64
	db.DB.Model(&streets.Segment{}).
		Where("street_id = ? AND zone_id IS NOT NULL", street.ID).
		Count(&count)
	if count != 0 {
		t.Errorf("expected no assignments written, found %d", count)
	}
}
