// Package logging provides a minimal logging interface and adapters for Lamina.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the dispatcher, agents and the model client use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping a plain *slog.Logger
//   - RouterLogger with component scoping and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	router, err := lamina.New(func(o *lamina.Options) { o.Logger = logger })
//
// The interface is kept minimal so any structured logger can be plugged in.
package logging
