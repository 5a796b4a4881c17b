package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
	"github.com/calder-instruments/bench-core/internal/infrastructure/logging"
	"github.com/calder-instruments/bench-core/internal/instrument"
	"github.com/calder-instruments/bench-core/internal/recorder"
)

// queueConn is a scripted instrument connection. Writes are recorded and
// reads pop the next queued reply.
type queueConn struct {
	mu       sync.Mutex
	commands []string
	replies  []string
}

func (c *queueConn) Write(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, command)
	return nil
}

func (c *queueConn) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		return "", nil
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func (c *queueConn) queue(replies ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

func (c *queueConn) lastCommand() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.commands) == 0 {
		return ""
	}
	return c.commands[len(c.commands)-1]
}

// newBenchInstrument builds a test instrument with one control and one
// measurement property.
func newBenchInstrument(conn instrument.Connection) *instrument.Instrument {
	owner := instrument.New(conn, "Demo DMM", instrument.WithSCPI(false))
	owner.AddProperty("voltage", instrument.Control(
		"VOLT?", "VOLT %g",
		"Control the measured voltage range.",
	))
	owner.AddProperty("reading", instrument.Measurement(
		"READ?",
		"Get the present reading.",
	))
	return owner
}

// testStore creates a reading store over in-memory SQLite with one session.
func testStore(t *testing.T) *recorder.SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			bench_id TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		);
		CREATE TABLE readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			instrument_id TEXT NOT NULL,
			property TEXT NOT NULL,
			op TEXT NOT NULL CHECK (op IN ('get', 'set')),
			value TEXT NOT NULL,
			numeric_value REAL,
			recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	store := recorder.NewSQLiteStore(db)
	if err := store.StartSession(context.Background(), "session-1", "bench-1"); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	return store
}

// testServer creates a Server with one scripted instrument and an
// in-memory reading store.
func testServer(t *testing.T) (*Server, *queueConn) {
	t.Helper()

	conn := &queueConn{}
	registry := instrument.NewRegistry()
	err := registry.Add(&instrument.Entry{
		ID:          "dmm-1",
		Owner:       newBenchInstrument(conn),
		AdapterKind: "fake",
	})
	if err != nil {
		t.Fatalf("registry.Add() error = %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:   log,
		Registry: registry,
		Store:    testStore(t),
		Recorder: recorder.New("bench-1", nil, recorder.WithSessionID("session-1")),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return srv, conn
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if _, err := New(Deps{Registry: instrument.NewRegistry()}); err == nil {
		t.Error("New() should require a logger")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() should require a registry")
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleSession(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["session_id"] != "session-1" || body["bench_id"] != "bench-1" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleListInstruments(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Instruments []InstrumentSummary `json:"instruments"`
		Count       int                 `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 1 || len(body.Instruments) != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	got := body.Instruments[0]
	if got.ID != "dmm-1" || got.Name != "Demo DMM" || got.Adapter != "fake" {
		t.Errorf("instrument = %+v", got)
	}
	if got.Properties != 2 {
		t.Errorf("Properties = %d, want 2", got.Properties)
	}
}

func TestHandleGetInstrument(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/dmm-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body InstrumentDetail
	decodeBody(t, rec, &body)
	if len(body.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(body.Properties))
	}
	// Sorted: reading, voltage
	if body.Properties[0].Name != "reading" || body.Properties[0].Writable {
		t.Errorf("first property = %+v, want read-only reading", body.Properties[0])
	}
	if body.Properties[1].Name != "voltage" || !body.Properties[1].Writable || !body.Properties[1].Readable {
		t.Errorf("second property = %+v, want read-write voltage", body.Properties[1])
	}
}

func TestHandleGetInstrument_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetProperty(t *testing.T) {
	srv, conn := testServer(t)
	conn.queue("4.5")

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/dmm-1/properties/voltage", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["value"] != 4.5 {
		t.Errorf("value = %v, want 4.5", body["value"])
	}
	if conn.lastCommand() != "VOLT?" {
		t.Errorf("command = %q, want VOLT?", conn.lastCommand())
	}
}

func TestHandleGetProperty_Unknown(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/dmm-1/properties/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSetProperty(t *testing.T) {
	srv, conn := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/instruments/dmm-1/properties/voltage",
		[]byte(`{"value": 2.5}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	if conn.lastCommand() != "VOLT 2.5" {
		t.Errorf("command = %q, want %q", conn.lastCommand(), "VOLT 2.5")
	}
}

func TestHandleSetProperty_ReadOnly(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/instruments/dmm-1/properties/reading",
		[]byte(`{"value": 1}`))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleSetProperty_BadBody(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/instruments/dmm-1/properties/voltage",
		[]byte(`{not json`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/instruments/dmm-1/properties/voltage",
		[]byte(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing value", rec.Code)
	}
}

func TestHandleInstrumentReadings(t *testing.T) {
	srv, _ := testServer(t)

	// Seed two readings through the store.
	store := srv.store.(*recorder.SQLiteStore)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, value := range []string{"1.0", "2.0"} {
		err := store.Record(context.Background(), recorder.Reading{
			SessionID:    "session-1",
			InstrumentID: "dmm-1",
			Property:     "voltage",
			Op:           "get",
			Value:        value,
			RecordedAt:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/dmm-1/readings?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Count    int                `json:"count"`
		Readings []recorder.Reading `json:"readings"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Readings[0].Value != "2.0" {
		t.Errorf("first reading value = %q, want newest first", body.Readings[0].Value)
	}
}

func TestHandleInstrumentReadings_BadLimit(t *testing.T) {
	srv, _ := testServer(t)

	for _, limit := range []string{"abc", "-1", "0", "999999"} {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/instruments/dmm-1/readings?limit="+limit, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestHandleSessionReadings(t *testing.T) {
	srv, _ := testServer(t)

	store := srv.store.(*recorder.SQLiteStore)
	err := store.Record(context.Background(), recorder.Reading{
		SessionID:    "session-1",
		InstrumentID: "dmm-1",
		Property:     "voltage",
		Op:           "set",
		Value:        "3.3",
		RecordedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sessions/session-1/readings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body SystemMetrics
	decodeBody(t, rec, &body)
	if body.Version != "test" {
		t.Errorf("Version = %q, want %q", body.Version, "test")
	}
	if body.Instruments.Total != 1 {
		t.Errorf("Instruments.Total = %d, want 1", body.Instruments.Total)
	}
	if body.Runtime.Goroutines < 1 {
		t.Errorf("Runtime.Goroutines = %d, want at least 1", body.Runtime.Goroutines)
	}
}

func TestHandleReset(t *testing.T) {
	conn := &queueConn{}
	registry := instrument.NewRegistry()
	owner := instrument.New(conn, "Demo DMM") // SCPI on for reset support
	if err := registry.Add(&instrument.Entry{ID: "dmm-1", Owner: owner, AdapterKind: "fake"}); err != nil {
		t.Fatalf("registry.Add() error = %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	srv, err := New(Deps{Config: config.APIConfig{}, Logger: log, Registry: registry, Version: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/instruments/dmm-1/reset", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if conn.lastCommand() != "*RST" {
		t.Errorf("command = %q, want *RST", conn.lastCommand())
	}
}

func TestRequestID_Propagated(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want %q", got, "req-42")
	}
}

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated when absent")
	}
}
