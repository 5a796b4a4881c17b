// Package influxdb writes bench telemetry to InfluxDB v2.
//
// Two measurements flow through it: "readings", one point per numeric
// property access (the recorder's Influx sink), and "poll_stats", one
// point per poller sweep. Writes go through the client library's batched
// non-blocking API, so a slow or absent InfluxDB never stalls recording;
// batch failures surface through the SetOnError callback.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("dmm-1", "voltage", "get", 1.5012, time.Now())
//
// InfluxDB is optional: Connect returns ErrDisabled when the config
// section is off, and the daemon runs with SQLite history only.
// All methods are safe for concurrent use.
package influxdb
