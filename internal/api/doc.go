// Package api serves the orchestrator over HTTP for the browser frontend.
//
// Routes live under /api and are registered on a chi router. When an API
// token is configured every request must carry "Authorization: Bearer
// <token>". Each request gets a correlation id (X-Request-ID, generated when
// absent) that flows into logs and outgoing service calls.
//
// Errors are returned as {"error": "..."} with the status derived from the
// service error marker: validation 400, not found 404, upstream failures 502,
// missing configuration 503, storage quota 507.
//
// GET /api/logs exposes the in-process log stream with the same since/limit/
// follow/tail cursor semantics as the CLI tail.
package api
