// Package poller samples instrument properties on an interval.
//
// Each configured target names an instrument, the measurement properties
// to sample, and the interval. Sampling goes through the owner's normal
// property pipeline, so every value flows to the recorder via the
// instrument's observer hook; the poller itself only triggers the reads
// and keeps per-instrument counters.
//
// Run blocks until the context is cancelled and every loop has drained.
package poller
