// Package logging provides the structured logging system for the area
// client, built on Go's standard slog package.
//
// Every log entry carries a subsystem tag so that output from the OAuth
// flow controller, the realtime channel, the API client and the CLI layer
// can be told apart and filtered by log aggregation tooling:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Realtime", "connected to %s", endpoint)
//	logging.Error("OAuth", err, "completion handshake failed for %s", service)
//
// Subsystems in use: Bootstrap, Config, API, Session, Catalog, OAuth,
// Realtime, CLI.
//
// The package is safe for concurrent use. Before Init is called, entries
// at Info and above are written to stderr so that early failures are not
// silently lost.
package logging
