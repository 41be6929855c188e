// Package services defines shared utilities consumed by the orchestrator and
// the external integrations (analysis endpoint, recipe backend, image store).
//
// Key responsibilities:
//   - Context helpers that stamp recipe IDs, operation names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (validation vs external vs quota) with errors.Is and mapped
//     onto HTTP status codes by the API surface.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability) stays uniform across the application.
package services
