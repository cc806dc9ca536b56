// Command engined runs the staged pipeline over a synthetic frame stream and
// exposes an ops HTTP surface for health, status and Prometheus metrics.
package main
