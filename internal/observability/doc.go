// Package observability builds the zap logger and the Prometheus metrics
// used by the HTTP layer and the unit of work.
package observability
