// Package logging wraps log/slog for the bench daemon.
//
// All records carry service and version attributes so bench logs remain
// identifiable once aggregated. Output format and level come from the
// logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Library packages do not import this package directly; they accept a
// small Logger interface and *logging.Logger satisfies it:
//
//	logger := logging.New(cfg.Logging, version)
//	registry.SetLogger(logger.With("component", "registry"))
//
// Never log credentials or broker passwords.
package logging
