// Package api provides the HTTP REST API for Bench Core.
//
// It exposes the instrument registry, property reads and writes, recorded
// reading history, and system metrics to lab tooling and dashboards.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
