// Package logging assembles structured slog loggers and formatting helpers used
// across recipebox.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so orchestrator code can tag log
// lines with recipe IDs, operation names and correlation IDs. A bounded
// StreamHub keeps recent events for the /api/logs endpoint, and NewNop serves
// tests and wiring code that cannot fail.
package logging
