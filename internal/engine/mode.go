package engine

// Mode selects how the pipeline boundaries are driven.
type Mode int

const (
	// ModeFull runs both ingress and egress inside the engine: a source
	// or user input worker produces, a sink, renderer or user output
	// worker consumes.
	ModeFull Mode = iota

	// ModeAsyncIn exposes the ingress queue to the application through
	// the emplace/push boundary operations.
	ModeAsyncIn

	// ModeAsyncOut exposes the egress queue to the application through
	// the pop boundary operations.
	ModeAsyncOut

	// ModeAsync exposes both boundaries.
	ModeAsync
)

// String returns the mode name used in configuration errors.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeAsyncIn:
		return "async-in"
	case ModeAsyncOut:
		return "async-out"
	case ModeAsync:
		return "async"
	default:
		return "unknown"
	}
}

func (m Mode) asyncIn() bool {
	return m == ModeAsyncIn || m == ModeAsync
}

func (m Mode) asyncOut() bool {
	return m == ModeAsyncOut || m == ModeAsync
}
