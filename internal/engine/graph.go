package engine

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"go.uber.org/zap"
)

func configErr(op, format string, args ...any) error {
	return &pipeline.ConfigError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// exactlyOne enforces the boundary exclusivity rule and names the
// conflicting options in the error.
func exactlyOne(boundary string, selected []string) error {
	switch len(selected) {
	case 1:
		return nil
	case 0:
		return configErr("configure", "no %s selected: configure one of source/worker/renderer or use an asynchronous mode", boundary)
	default:
		return configErr("configure", "conflicting %s options: %s (exactly one may be selected)", boundary, strings.Join(selected, " + "))
	}
}

// graphBuilder tracks the thread id and queue index walk while the engine
// places stages. Thread ids only advance in multi-threaded mode, so
// disabling multi-threading collapses the whole graph onto thread 0.
type graphBuilder struct {
	mgr         *pipeline.Manager
	multiThread bool
	threadID    int
	prevThread  int
	queueIn     int
	queueOut    int
}

// next returns the current thread id and advances it in multi-thread mode.
func (b *graphBuilder) next() int {
	id := b.threadID
	b.prevThread = id
	if b.multiThread {
		b.threadID++
	}
	return id
}

// advance moves the queue window one position downstream.
func (b *graphBuilder) advance() (in, out int) {
	in, out = b.queueIn, b.queueOut
	b.queueIn++
	b.queueOut++
	return in, out
}

// buildGraph assembles a fresh manager from the stored configuration. Called
// under no lock contention at start time; returns the manager so the caller
// can Start or Run it without holding the engine lock.
func (e *Engine) buildGraph() (*pipeline.Manager, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return nil, configErr("start", "engine not configured")
	}

	e.seq.Reset()
	mgr := pipeline.NewManager(e.opts.QueueCapacity, e.rt, e.log)
	if e.onFail != nil {
		mgr.OnFailure(e.onFail)
	}
	b := &graphBuilder{mgr: mgr, multiThread: e.multiThread, queueOut: 1}

	if err := e.placeIngress(b); err != nil {
		return nil, err
	}
	width, err := e.placeReplicas(b)
	if err != nil {
		return nil, err
	}
	if err := e.placePost(b, width); err != nil {
		return nil, err
	}
	if err := e.placeEgress(b); err != nil {
		return nil, err
	}

	e.mgr = mgr
	return mgr, nil
}

// placeIngress wires the producer side. The sequencer always runs
// immediately after ingress, before any possible fan-out, so every
// downstream replica sees a unique ordered id.
func (e *Engine) placeIngress(b *graphBuilder) error {
	inputUnits := append([]pipeline.Unit{e.seq}, e.opts.InputUnits...)

	switch {
	case e.userInput != nil && e.userInput.onNewThread:
		// Producer on its own thread, sequencing stage on the next.
		if err := b.mgr.AddGenerator(b.next(), e.userInput.gen, nil, b.queueIn); err != nil {
			return err
		}
		in, out := b.advance()
		return b.mgr.Add(b.next(), inputUnits, in, out)

	case e.userInput != nil:
		// Producer shares the sequencing thread.
		return b.mgr.AddGenerator(b.next(), e.userInput.gen, inputUnits, b.queueIn)

	case e.opts.Source != nil:
		return b.mgr.AddGenerator(b.next(), e.opts.Source, inputUnits, b.queueIn)

	default:
		// Asynchronous ingress: the boundary port feeds the first queue.
		in, out := b.advance()
		return b.mgr.Add(b.next(), inputUnits, in, out)
	}
}

// placeReplicas wires the core parallel stage group, one thread per replica,
// all sharing one input/output queue pair. Returns the effective width.
func (e *Engine) placeReplicas(b *graphBuilder) (int, error) {
	if e.opts.ReplicaFactory == nil {
		return 0, nil
	}
	width := e.opts.Replicas
	if !e.multiThread && width > 1 {
		e.log.Warn("multi-threading disabled, running a single replica", zap.Int("configured", width))
		width = 1
	}
	for i := 0; i < width; i++ {
		units := e.opts.ReplicaFactory(i)
		if len(units) == 0 {
			return 0, configErr("configure", "replica factory returned no units for replica %d", i)
		}
		if e.metrics != nil {
			units = e.instrument(fmt.Sprintf("replica-%d", i), units)
		}
		if err := b.mgr.Add(b.next(), units, b.queueIn, b.queueOut); err != nil {
			return 0, err
		}
	}
	b.advance()
	return width, nil
}

// placePost wires the orderer (only when the group was actually replicated),
// the engine post units, user post workers and output units, merging them
// onto one thread unless the user asked for a separate one.
func (e *Engine) placePost(b *graphBuilder, width int) error {
	var post []pipeline.Unit
	if width > 1 {
		post = append(post, pipeline.NewOrderer())
	}
	post = append(post, e.opts.PostUnits...)

	if e.userPost != nil && e.userPost.onNewThread {
		if len(post) > 0 {
			in, out := b.advance()
			if err := b.mgr.Add(b.next(), post, in, out); err != nil {
				return err
			}
		}
		in, out := b.advance()
		if err := b.mgr.Add(b.next(), e.userPost.units, in, out); err != nil {
			return err
		}
		if len(e.opts.OutputUnits) > 0 {
			in, out := b.advance()
			return b.mgr.Add(b.next(), e.opts.OutputUnits, in, out)
		}
		return nil
	}

	merged := post
	if e.userPost != nil {
		merged = append(merged, e.userPost.units...)
	}
	merged = append(merged, e.opts.OutputUnits...)
	if len(merged) == 0 {
		return nil
	}
	in, out := b.advance()
	return b.mgr.Add(b.next(), merged, in, out)
}

// placeEgress wires the consumer side. A user output worker not requesting
// its own thread shares the previous stage's thread id.
func (e *Engine) placeEgress(b *graphBuilder) error {
	sink := e.egressSink()
	if sink == nil {
		// Asynchronous egress: the last queue is the boundary port.
		return nil
	}
	if e.metrics != nil {
		sink = e.metrics.InstrumentSink("egress", sink)
	}
	threadID := b.threadID
	if e.userOutput != nil && !e.userOutput.onNewThread {
		threadID = b.prevThread
	}
	return b.mgr.AddSink(threadID, sink, b.queueIn)
}

func (e *Engine) egressSink() pipeline.Sink {
	switch {
	case e.opts.Sink != nil:
		return e.opts.Sink
	case e.userOutput != nil:
		return e.userOutput.sink
	case e.opts.Renderer != nil:
		return renderSink{r: e.opts.Renderer}
	default:
		return nil
	}
}

func (e *Engine) instrument(stage string, units []pipeline.Unit) []pipeline.Unit {
	wrapped := make([]pipeline.Unit, len(units))
	for i, u := range units {
		wrapped[i] = e.metrics.InstrumentUnit(stage, u)
	}
	return wrapped
}
