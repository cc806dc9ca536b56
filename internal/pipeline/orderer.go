package pipeline

import (
	"context"
	"fmt"
)

// Orderer restores sequence-id order immediately downstream of a parallel
// stage group. Items arriving early are buffered; an item is released only
// when its id matches the next expected one, after which the buffer is
// drained in ascending id order (cascading release).
//
// The hold buffer is treated as unbounded. Under a fair scheduler it never
// grows past the width of the preceding group, but correctness must not
// depend on scheduler fairness.
//
// A Last sentinel is released only once every numbered item before it has
// been released.
type Orderer struct {
	next  uint64
	held  map[uint64]*Item
	last  *Item
	ready []*Item
}

// NewOrderer creates an orderer expecting id 0 first.
func NewOrderer() *Orderer {
	return &Orderer{held: make(map[uint64]*Item)}
}

// Process implements Unit. It always returns a nil item; released items are
// collected through Emit.
func (o *Orderer) Process(_ context.Context, item *Item) (*Item, error) {
	if item.Last {
		o.last = item
	} else {
		switch {
		case item.Seq == o.next:
			o.release(item)
		case item.Seq < o.next:
			return nil, fmt.Errorf("pipeline orderer: id %d arrived after id %d was released", item.Seq, o.next)
		default:
			o.held[item.Seq] = item
		}
	}
	o.drain()
	return nil, nil
}

// Emit implements Emitter, returning the items released since the last call
// in sequence order.
func (o *Orderer) Emit() []*Item {
	ready := o.ready
	o.ready = nil
	return ready
}

// Pending returns the number of buffered early arrivals.
func (o *Orderer) Pending() int {
	return len(o.held)
}

// Reset clears all buffered state for a rebuilt pipeline.
func (o *Orderer) Reset() {
	o.next = 0
	o.held = make(map[uint64]*Item)
	o.last = nil
	o.ready = nil
}

func (o *Orderer) release(item *Item) {
	o.ready = append(o.ready, item)
	o.next = item.Seq + 1
}

// drain cascades buffered items that became releasable, then the sentinel
// once nothing numbered remains before it.
func (o *Orderer) drain() {
	for {
		item, ok := o.held[o.next]
		if !ok {
			break
		}
		delete(o.held, o.next)
		o.release(item)
	}
	if o.last != nil && len(o.held) == 0 && o.next >= o.last.Seq {
		o.ready = append(o.ready, o.last)
		if o.last.Seq >= o.next {
			o.next = o.last.Seq + 1
		}
		o.last = nil
	}
}
