package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream is returned by a Generator when its source is
	// exhausted. The manager converts it into a Last item downstream.
	ErrEndOfStream = errors.New("pipeline: end of stream")

	// ErrSequenceOverflow is returned by the Sequencer if the id counter
	// would wrap. Ids are never reused.
	ErrSequenceOverflow = errors.New("pipeline: sequence id overflow")
)

// ConfigError reports an invalid graph construction or a misuse of the
// boundary API. It always surfaces to the caller before the pipeline starts;
// a pipeline never runs in an invalid configuration.
type ConfigError struct {
	Op     string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pipeline config: %s: %s", e.Op, e.Reason)
}

func configErrorf(op, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// StageError wraps a processing unit failure with its position in the graph.
// A stage failure is fatal to the entire pipeline: it is never retried and
// never swallowed.
type StageError struct {
	ThreadID int
	QueueIn  int
	QueueOut int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage failed (thread %d, queues %d->%d): %v",
		e.ThreadID, e.QueueIn, e.QueueOut, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
