// Package resource implements the sharing protocol for an expensive,
// exclusively-owned working buffer that several pipeline stages touch before
// a single designated stage frees it.
//
// This is a protocol, not a component with its own thread: the first stage
// needing the buffer allocates it and becomes the owner; intermediate stages
// registered as holders use it by reference; the one stage designated the
// releaser at configuration time frees it after its own use. The roles give
// exactly one allocation, exactly one free, any number of in-between users,
// and detectable use-after-free, without a tracing collector.
//
// Which stage releases cannot be inferred from data flow alone (it depends
// on which optional stages are present in a configuration), so designating
// the releaser is a caller responsibility.
package resource
