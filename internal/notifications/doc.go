// Package notifications turns orchestrator events into transient, localized
// toasts.
//
// Every event is recorded in a bounded in-memory history that the HTTP API
// serves to the frontend. When an ntfy topic is configured the noteworthy
// events are also pushed there. Callers depend only on the Service interface.
package notifications
