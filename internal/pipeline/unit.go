package pipeline

import "context"

// Unit is the single capability every processing stage is built from: take
// one item, return one item. Stages hold units by interface, never by
// concrete type, so heterogeneous unit kinds compose into one stage.
//
// A unit may return (nil, nil) to hold the item internally; units that hold
// items should also implement Emitter so the stage driver can collect
// whatever became ready.
//
// A non-nil error is fatal to the whole pipeline.
type Unit interface {
	Process(ctx context.Context, item *Item) (*Item, error)
}

// UnitFunc adapts a function to the Unit interface.
type UnitFunc func(ctx context.Context, item *Item) (*Item, error)

// Process implements Unit.
func (f UnitFunc) Process(ctx context.Context, item *Item) (*Item, error) {
	return f(ctx, item)
}

// Emitter is implemented by units that buffer items and release them later
// (the Orderer). The stage driver calls Emit after each Process and forwards
// every returned item in order.
type Emitter interface {
	Emit() []*Item
}

// Generator produces items at pipeline ingress. It returns ErrEndOfStream
// when the source is exhausted; the manager then forwards a Last sentinel
// and retires the generator.
type Generator interface {
	Generate(ctx context.Context) (*Item, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context) (*Item, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context) (*Item, error) {
	return f(ctx)
}

// Sink consumes items at pipeline egress.
type Sink interface {
	Consume(ctx context.Context, item *Item) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, item *Item) error

// Consume implements Sink.
func (f SinkFunc) Consume(ctx context.Context, item *Item) error {
	return f(ctx, item)
}
