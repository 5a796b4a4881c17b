package recorder

import (
	"context"
	"time"
)

// InfluxWriter is the slice of the InfluxDB client the sink needs.
// Satisfied by *influxdb.Client.
type InfluxWriter interface {
	WriteReading(instrumentID, property, op string, value float64, timestamp time.Time)
}

// InfluxSink forwards numeric readings to the time-series database.
// Non-numeric readings are skipped; Influx fields are typed and the
// local SQLite store already keeps the full record.
type InfluxSink struct {
	writer InfluxWriter
}

// NewInfluxSink creates a sink over an InfluxDB client.
func NewInfluxSink(writer InfluxWriter) *InfluxSink {
	return &InfluxSink{writer: writer}
}

// Record implements Sink. Writes are non-blocking; delivery failures
// surface through the client's own error callback.
func (s *InfluxSink) Record(_ context.Context, reading Reading) error {
	if reading.Numeric == nil {
		return nil
	}
	s.writer.WriteReading(
		reading.InstrumentID,
		reading.Property,
		reading.Op,
		*reading.Numeric,
		reading.RecordedAt,
	)
	return nil
}
