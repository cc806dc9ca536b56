package pipeline

import "sync/atomic"

// Runtime holds the small set of flags shared across every thread and the
// GUI: the running flag any component may clear to request shutdown, and the
// seek request a display surface may file against the producer. It is passed
// by reference at configuration time rather than accessed as ambient global
// state.
type Runtime struct {
	running atomic.Bool
	seek    atomic.Bool
	seekTo  atomic.Int64
}

// NewRuntime creates a runtime in the stopped state.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// IsRunning reports whether the pipeline is running.
func (r *Runtime) IsRunning() bool {
	return r.running.Load()
}

// setRunning flips the shared running flag.
func (r *Runtime) setRunning(v bool) {
	r.running.Store(v)
}

// RequestStop clears the running flag. Every worker observes it between
// processing steps; blocked workers are woken by the manager closing the
// queues.
func (r *Runtime) RequestStop() {
	r.running.Store(false)
}

// RequestSeek files a seek request for the producer to honor.
func (r *Runtime) RequestSeek(frame int64) {
	r.seekTo.Store(frame)
	r.seek.Store(true)
}

// TakeSeek consumes a pending seek request, if any.
func (r *Runtime) TakeSeek() (int64, bool) {
	if !r.seek.CompareAndSwap(true, false) {
		return 0, false
	}
	return r.seekTo.Load(), true
}
