package pipeline

import "github.com/GriffinCanCode/FlowOS/engine/internal/resource"

// Item is the unit of data flowing through a pipeline. The payload is opaque
// to the scheduler; it only cares about the sequence id and the end-of-stream
// marker.
//
// An item is exclusively owned by whichever stage currently holds it.
// Ownership transfers on queue push; an item is never duplicated by the
// scheduler and never dropped silently.
type Item struct {
	// Seq is the monotonic sequence id assigned by the Sequencer when the
	// item enters the graph. Assigned once, immutable afterward.
	Seq uint64

	// Last marks the end of the stream. A Last item flows through every
	// stage so that buffering units can flush, and triggers a graceful
	// stop once consumed at egress.
	Last bool

	// Payload carries the stage-defined data.
	Payload any

	// Buffer optionally references a shared buffer whose lifetime spans
	// several stages (owner allocates, holders use, releaser frees). Copies
	// made by the boundary push operations share the handle.
	Buffer *resource.Handle
}

// EndOfStream returns the sentinel item that marks stream termination.
func EndOfStream() *Item {
	return &Item{Last: true}
}

// clone returns a shallow copy for the copy-semantics boundary operations.
func (i *Item) clone() *Item {
	c := *i
	return &c
}
