package pipeline

import (
	"context"
	"math"
	"sync/atomic"
)

// Sequencer assigns the next unused sequence id to each item at pipeline
// entry. It runs exactly once per item, immediately after ingress and before
// any fan-out, so every downstream replica sees a unique, ordered id.
//
// Ids start at 0 and are never reused. Wrapping is not supported: the
// sequencer fails fast on overflow instead of handing out a duplicate id.
type Sequencer struct {
	next atomic.Uint64
}

// NewSequencer creates a sequencer starting at id 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Process implements Unit.
func (s *Sequencer) Process(_ context.Context, item *Item) (*Item, error) {
	id := s.next.Load()
	if id == math.MaxUint64 {
		return nil, ErrSequenceOverflow
	}
	s.next.Store(id + 1)
	item.Seq = id
	return item, nil
}

// Next returns the id that will be assigned to the next item.
func (s *Sequencer) Next() uint64 {
	return s.next.Load()
}

// Reset rewinds the counter to 0 for a rebuilt pipeline.
func (s *Sequencer) Reset() {
	s.next.Store(0)
}
