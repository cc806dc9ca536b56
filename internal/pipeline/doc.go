// Package pipeline implements the staged data-flow scheduler at the core of
// the engine.
//
// A pipeline is a linear chain of stages connected by bounded queues. Each
// stage is an ordered list of processing units executed against one item at a
// time, bound to a thread id. Stages sharing a thread id are driven
// cooperatively in round-robin; stages on distinct ids each get their own
// goroutine with blocking queue operations, so a slow stage applies
// back-pressure upstream through its full input queue.
//
// Components:
//   - Item: the unit of data moving through the graph, tagged with a
//     monotonic sequence id at entry
//   - Queue: fixed-capacity FIFO, the only cross-thread data path
//   - Unit: single-method processing capability implemented by every stage
//   - Sequencer: assigns sequence ids at pipeline entry
//   - Orderer: restores sequence order downstream of a parallel stage group
//   - Manager: owns the graph and the worker lifecycle
//
// Failure model: a unit error is fatal to the whole pipeline. The manager
// stops every thread, closes every queue and reports the failure from Run or
// Wait. There is no retry and no partial recovery.
package pipeline
