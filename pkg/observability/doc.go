// Package observability provides structured logging, Prometheus metrics and
// health checking for the CRM gateway.
//
// The logger is a thin wrapper around log/slog emitting JSON, with
// WithField/WithError chaining and context propagation helpers. Metrics cover
// the admission pipeline: request totals and latency, identity cache hits and
// misses, rate limiter verdicts and upstream dependency failures.
//
// Health endpoints follow the liveness/readiness split: liveness always
// returns 200 while the process runs; readiness pings Redis and reports
// degraded (not unhealthy) when the cache is down, since the pipeline is
// designed to operate without it.
package observability
