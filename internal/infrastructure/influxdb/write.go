package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading writes one property reading to InfluxDB.
//
// This is the primary method for recording instrument telemetry. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - instrumentID: Bench-unique instrument identifier (e.g., "dmm-1")
//   - property: The property name (e.g., "voltage", "current")
//   - op: Access direction, "get" or "set"
//   - value: The numeric value recorded
//   - timestamp: When the access happened
//
// Example:
//
//	client.WriteReading("dmm-1", "voltage", "get", 1.5012, time.Now())
func (c *Client) WriteReading(instrumentID, property, op string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"readings",
		map[string]string{
			"instrument": instrumentID,
			"property":   property,
			"op":         op,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePollStats writes one poller cycle summary.
//
// Used for monitoring sampling health: how many properties were read and
// how many failed in the cycle.
//
// Parameters:
//   - instrumentID: Instrument being polled
//   - sampled: Properties read successfully this cycle
//   - failed: Properties whose read failed this cycle
//   - elapsed: Wall time the cycle took
func (c *Client) WritePollStats(instrumentID string, sampled, failed int, elapsed time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"poll_stats",
		map[string]string{
			"instrument": instrumentID,
		},
		map[string]interface{}{
			"sampled":    sampled,
			"failed":     failed,
			"elapsed_ms": elapsed.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "bench-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
