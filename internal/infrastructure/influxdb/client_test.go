package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calder-instruments/bench-core/internal/infrastructure/config"
	"github.com/calder-instruments/bench-core/internal/infrastructure/influxdb"
)

// testConfig matches the local dev InfluxDB from docker-compose.yml.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "benchcore-dev-token",
		Org:           "calder",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// newTestClient connects to the local InfluxDB, skipping the test when it is
// not running. The connection is closed automatically at cleanup.
func newTestClient(t *testing.T, cfg config.InfluxDBConfig) *influxdb.Client {
	t.Helper()

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Skipf("InfluxDB unavailable at %s: %v", cfg.URL, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// flushAndCheck flushes pending points and fails the test if the async write
// path reported an error.
func flushAndCheck(t *testing.T, client *influxdb.Client, errMu *sync.Mutex, writeErr *error) {
	t.Helper()

	client.Flush()
	time.Sleep(100 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if *writeErr != nil {
		t.Errorf("async write error = %v", *writeErr)
	}
}

// captureWriteErrors installs an error callback and returns the guarded slot.
func captureWriteErrors(client *influxdb.Client) (*sync.Mutex, *error) {
	var mu sync.Mutex
	var writeErr error
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})
	return &mu, &writeErr
}

// =============================================================================
// Connection
// =============================================================================

func TestConnect(t *testing.T) {
	client := newTestClient(t, testConfig())

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := influxdb.Connect(cfg); err == nil {
		t.Error("Connect() error = nil for unreachable server, want error")
	}
}

func TestConnectBatchDefaults(t *testing.T) {
	// Zero and negative batch settings fall back to library defaults
	// rather than producing a client that never flushes.
	tests := []struct {
		name          string
		batchSize     int
		flushInterval int
	}{
		{"zero values", 0, 0},
		{"negative values", -5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.BatchSize = tt.batchSize
			cfg.FlushInterval = tt.flushInterval

			client := newTestClient(t, cfg)
			if !client.IsConnected() {
				t.Error("IsConnected() = false, want true")
			}
		})
	}
}

func TestClose(t *testing.T) {
	client := newTestClient(t, testConfig())

	client.WriteReading("dmm-1", "voltage", "get", 1.0, time.Now())

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

// =============================================================================
// HealthCheck
// =============================================================================

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.HealthCheck(cancelled); err == nil {
			t.Error("HealthCheck() error = nil for cancelled context, want error")
		}
	})
}

// =============================================================================
// Writes
// =============================================================================

func TestWriteReading(t *testing.T) {
	client := newTestClient(t, testConfig())
	mu, writeErr := captureWriteErrors(client)

	client.WriteReading("dmm-1", "voltage", "get", 1.2045, time.Now())
	client.WriteReading("psu-1", "current", "set", 0.5, time.Now())

	flushAndCheck(t, client, mu, writeErr)
}

func TestWritePollStats(t *testing.T) {
	client := newTestClient(t, testConfig())
	mu, writeErr := captureWriteErrors(client)

	client.WritePollStats("dmm-1", 5, 0, 120*time.Millisecond)
	client.WritePollStats("scope-2", 3, 1, 480*time.Millisecond)

	flushAndCheck(t, client, mu, writeErr)
}

func TestWritePoint(t *testing.T) {
	client := newTestClient(t, testConfig())
	mu, writeErr := captureWriteErrors(client)

	client.WritePoint(
		"session_events",
		map[string]string{"bench": "bench-a"},
		map[string]interface{}{"instruments": 3, "uptime_s": 99.9},
	)

	flushAndCheck(t, client, mu, writeErr)
}

func TestWritePointWithTime(t *testing.T) {
	client := newTestClient(t, testConfig())
	mu, writeErr := captureWriteErrors(client)

	// Backfilled readings carry their original capture timestamp.
	captured := time.Now().Add(-1 * time.Hour)
	client.WritePointWithTime(
		"readings",
		map[string]string{"instrument": "dmm-1", "property": "voltage", "op": "get"},
		map[string]interface{}{"value": 1.2045},
		captured,
	)

	flushAndCheck(t, client, mu, writeErr)
}
