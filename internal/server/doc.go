// Package server provides the ops HTTP surface for the pipeline engine.
//
// Endpoints:
//   - GET /health: liveness and running flag
//   - GET /status: pipeline state, queue depths, metric snapshot
//   - POST /stop: request a graceful pipeline stop
//   - GET /metrics: Prometheus exposition
//
// The server observes and stops the pipeline; it never feeds or drains it.
package server
