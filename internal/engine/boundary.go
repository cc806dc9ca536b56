package engine

import (
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
)

// Boundary port operations: direct application access to the first and last
// queues. Boundary use and worker-based ingress/egress are permanently
// exclusive once chosen, so the rules are checked on every call, not only at
// configuration time.

// TryEmplace moves an item onto the ingress queue without blocking. It
// returns false if the queue is full or the pipeline was stopped.
func (e *Engine) TryEmplace(item *pipeline.Item) (bool, error) {
	if err := e.checkIngressPort("try-emplace"); err != nil {
		return false, err
	}
	return e.ingressManager().TryEmplace(item), nil
}

// WaitAndEmplace moves an item onto the ingress queue, blocking until there
// is space. It returns false only if the pipeline stops while waiting.
func (e *Engine) WaitAndEmplace(item *pipeline.Item) (bool, error) {
	if err := e.checkIngressPort("wait-and-emplace"); err != nil {
		return false, err
	}
	return e.ingressManager().WaitAndEmplace(item), nil
}

// TryPush copies an item onto the ingress queue without blocking.
func (e *Engine) TryPush(item *pipeline.Item) (bool, error) {
	if err := e.checkIngressPort("try-push"); err != nil {
		return false, err
	}
	return e.ingressManager().TryPush(item), nil
}

// WaitAndPush copies an item onto the ingress queue, blocking until space.
func (e *Engine) WaitAndPush(item *pipeline.Item) (bool, error) {
	if err := e.checkIngressPort("wait-and-push"); err != nil {
		return false, err
	}
	return e.ingressManager().WaitAndPush(item), nil
}

// TryPop retrieves an item from the egress queue without blocking.
func (e *Engine) TryPop() (*pipeline.Item, bool, error) {
	if err := e.checkEgressPort("try-pop"); err != nil {
		return nil, false, err
	}
	item, ok := e.ingressManager().TryPop()
	return item, ok, nil
}

// WaitAndPop retrieves an item from the egress queue, blocking until one is
// available or the pipeline stops.
func (e *Engine) WaitAndPop() (*pipeline.Item, bool, error) {
	if err := e.checkEgressPort("wait-and-pop"); err != nil {
		return nil, false, err
	}
	item, ok := e.ingressManager().WaitAndPop()
	return item, ok, nil
}

func (e *Engine) checkIngressPort(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mode.asyncIn() {
		return configErr(op, "mode %s does not expose the ingress port", e.mode)
	}
	if e.userInput != nil {
		return configErr(op, "ingress port unavailable: a user input worker is configured")
	}
	if e.opts.Source != nil {
		return configErr(op, "ingress port unavailable: an engine source is configured")
	}
	if e.mgr == nil {
		return configErr(op, "pipeline not built: call Start or Exec first")
	}
	return nil
}

func (e *Engine) checkEgressPort(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mode.asyncOut() {
		return configErr(op, "mode %s does not expose the egress port", e.mode)
	}
	if e.userOutput != nil {
		return configErr(op, "egress port unavailable: a user output worker is configured")
	}
	if e.opts.Sink != nil {
		return configErr(op, "egress port unavailable: an engine sink is configured")
	}
	if e.opts.Renderer != nil {
		return configErr(op, "egress port unavailable: a renderer is configured")
	}
	if e.mgr == nil {
		return configErr(op, "pipeline not built: call Start or Exec first")
	}
	return nil
}

func (e *Engine) ingressManager() *pipeline.Manager {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mgr
}
