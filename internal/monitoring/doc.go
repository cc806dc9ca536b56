// Package monitoring provides Prometheus metrics and latency summaries for
// the pipeline engine.
//
// Components:
//   - Metrics: counters, gauges and histograms for items, stages and queues
//   - Unit/Sink instrumentation wrappers applied by the engine
//   - Tracker: sliding-window latency summary (mean, p50, p99)
//   - Gin middleware for the ops HTTP surface
//
// All metrics are registered through promauto on the default registry and
// exposed by the ops server's /metrics endpoint; a JSON snapshot backs the
// /status endpoint.
package monitoring
