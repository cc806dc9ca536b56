// Package engine assembles configured processing units into a running
// pipeline graph and owns its lifecycle.
//
// The engine sits between the application and the pipeline manager: the
// caller picks an operating mode, configures the processing chain (source,
// replicated core stages, post-processing, egress) and optional user workers,
// then starts the graph. The engine decides thread and queue placement:
//
//	source -> sequencer -> input units        (thread 0, or 0-1)
//	       -> N core replicas                 (one thread each)
//	       -> orderer (iff N > 1) + post units
//	       -> output units -> egress          (sink, renderer or port)
//
// In the asynchronous modes the first and/or last queue is exposed through
// the boundary port operations instead of being fed or drained by a worker;
// boundary use and worker-based ingress/egress are permanently exclusive and
// violations surface as configuration errors, never as a half-wired graph.
//
// Disabling multi-threading collapses every stage onto one thread id for
// deterministic debugging; Exec then drives the whole graph on the calling
// goroutine. Queue semantics are unchanged.
package engine
