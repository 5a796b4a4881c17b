// Package recorder captures instrument property traffic.
//
// Every successful get or set on an observed instrument produces a
// Reading, stamped with the current session UUID and fanned out to the
// configured sinks:
//
//   - SQLiteStore persists readings locally for history queries
//   - InfluxSink forwards numeric readings to the time-series database
//   - MQTTSink republishes readings for live dashboards
//
// Instruments are attached through Recorder.Observe, which returns a
// hook suitable for instrument.Base.SetObserver. Sink failures are
// logged and never interrupt the instrument pipeline.
package recorder
