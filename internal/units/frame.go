package units

import "time"

// Frame is the payload flowing through the demo pipeline: a block of
// synthetic bytes plus bookkeeping filled in by the built-in units.
type Frame struct {
	Index      int
	Data       []byte
	Checksum   uint32
	ProducedAt time.Time
}
