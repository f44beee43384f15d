// Package logging wires log/slog handlers for the Vizart daemon.
//
// It builds console or JSON loggers from configuration, provides shared
// attribute helpers, canonical field names, and a no-op logger for tests.
package logging
