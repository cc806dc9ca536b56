package engine

import (
	"context"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
)

// Renderer is the display-surface collaborator: it receives processed items
// at egress. A renderer that wants to propagate a window-close or seek
// request back into the scheduler should implement RuntimeBinder.
type Renderer interface {
	Render(ctx context.Context, item *pipeline.Item) error
}

// RuntimeBinder is implemented by renderers (or other collaborators) that
// need the shared runtime flags. The engine calls BindRuntime once during
// configuration, before the pipeline starts.
type RuntimeBinder interface {
	BindRuntime(rt *pipeline.Runtime)
}

// renderSink adapts a Renderer to the pipeline's Sink contract.
type renderSink struct {
	r Renderer
}

func (s renderSink) Consume(ctx context.Context, item *pipeline.Item) error {
	return s.r.Render(ctx, item)
}

// inputWorker is a user-supplied producer placement.
type inputWorker struct {
	gen         pipeline.Generator
	onNewThread bool
}

// postWorker is a user-supplied post-processing placement.
type postWorker struct {
	units       []pipeline.Unit
	onNewThread bool
}

// outputWorker is a user-supplied consumer placement.
type outputWorker struct {
	sink        pipeline.Sink
	onNewThread bool
}
