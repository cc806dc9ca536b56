// Package units provides the built-in processing units used by the demo
// binary and by YAML pipeline specs: a synthetic frame source, checksum,
// delay and passthrough stages, and a statistics sink.
package units
