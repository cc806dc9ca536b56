package engine

import (
	"sync"

	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"github.com/GriffinCanCode/FlowOS/engine/internal/monitoring"
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures the processing chain. Everything here is owned by the
// engine; user workers are attached separately through the SetXxxWorker
// methods.
type Options struct {
	// QueueCapacity is the capacity of every queue in the graph.
	// Defaults to 64.
	QueueCapacity int

	// Replicas is the width of the core parallel stage group. Each
	// replica runs the unit chain built by ReplicaFactory on its own
	// thread; with more than one replica an orderer is inserted
	// downstream to restore sequence order. Defaults to 1.
	Replicas int

	// ReplicaFactory builds the core stage for replica i, so each
	// execution unit gets its own stage instance. Nil means no core
	// group (a pass-through chain).
	ReplicaFactory func(replica int) []pipeline.Unit

	// Source is the engine-owned producer. Exactly one ingress must be
	// configured among Source, a user input worker and an async-in mode.
	Source pipeline.Generator

	// InputUnits run immediately after the sequencer, before the core
	// group (e.g. decode, normalize).
	InputUnits []pipeline.Unit

	// PostUnits run after the core group and orderer.
	PostUnits []pipeline.Unit

	// OutputUnits run last before egress (e.g. savers, encoders).
	OutputUnits []pipeline.Unit

	// Sink is the engine-owned consumer. Exactly one egress must be
	// configured among Sink, a user output worker, Renderer and an
	// async-out mode.
	Sink pipeline.Sink

	// Renderer is the display-surface consumer.
	Renderer Renderer
}

const defaultQueueCapacity = 64

// Engine turns a configuration into a running multi-threaded pipeline and
// controls its lifecycle. Zero-value is not usable; construct with New.
type Engine struct {
	mu   sync.Mutex
	id   string
	mode Mode
	log  *logging.Logger
	rt   *pipeline.Runtime

	opts        Options
	userInput   *inputWorker
	userPost    *postWorker
	userOutput  *outputWorker
	multiThread bool
	configured  bool

	seq     *pipeline.Sequencer
	mgr     *pipeline.Manager
	metrics *monitoring.Metrics
	onFail  func(error)
}

// New creates an engine in the given mode. log may be nil.
func New(mode Mode, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	id := uuid.NewString()
	return &Engine{
		id:          id,
		mode:        mode,
		log:         &logging.Logger{Logger: log.Logger.With(zap.String("run_id", id))},
		rt:          pipeline.NewRuntime(),
		multiThread: true,
		seq:         pipeline.NewSequencer(),
	}
}

// ID returns the engine run id.
func (e *Engine) ID() string {
	return e.id
}

// Runtime returns the shared runtime flags, for collaborators that need to
// request a stop or a seek.
func (e *Engine) Runtime() *pipeline.Runtime {
	return e.rt
}

// Manager exposes the underlying graph manager, mainly for the ops surface
// (queue depths).
func (e *Engine) Manager() *pipeline.Manager {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mgr
}

// SetMetrics attaches pipeline metrics. Core replica units and the egress
// path are instrumented when set.
func (e *Engine) SetMetrics(m *monitoring.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// OnFailure registers an observer for asynchronous stage failures.
func (e *Engine) OnFailure(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFail = fn
}

// DisableMultiThreading collapses every stage onto a single thread id for
// deterministic debugging. Replica groups are reduced to one replica; queue
// semantics are unchanged.
func (e *Engine) DisableMultiThreading() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.multiThread = false
}

// SetInputWorker attaches a user-supplied producer. onNewThread places it on
// its own thread; otherwise it shares the thread of the sequencing stage.
func (e *Engine) SetInputWorker(gen pipeline.Generator, onNewThread bool) error {
	if gen == nil {
		return configErr("set-input-worker", "generator is nil")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userInput = &inputWorker{gen: gen, onNewThread: onNewThread}
	return nil
}

// SetPostWorker attaches user-supplied post-processing units, placed after
// the engine's own post units.
func (e *Engine) SetPostWorker(units []pipeline.Unit, onNewThread bool) error {
	if len(units) == 0 {
		return configErr("set-post-worker", "no units")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userPost = &postWorker{units: units, onNewThread: onNewThread}
	return nil
}

// SetOutputWorker attaches a user-supplied consumer. When onNewThread is
// false it shares the thread of the stage immediately upstream.
func (e *Engine) SetOutputWorker(sink pipeline.Sink, onNewThread bool) error {
	if sink == nil {
		return configErr("set-output-worker", "sink is nil")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userOutput = &outputWorker{sink: sink, onNewThread: onNewThread}
	return nil
}

// Configure validates the chain against the operating mode and stores it.
// The graph itself is assembled on Start or Exec. Configuration failures
// always surface here or at start; the pipeline never runs half-wired.
func (e *Engine) Configure(opts Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = defaultQueueCapacity
	}
	if opts.Replicas <= 0 {
		opts.Replicas = 1
	}
	if opts.Replicas > 1 && opts.ReplicaFactory == nil {
		return configErr("configure", "replicas > 1 requires a replica factory")
	}
	if err := e.checkIngressExclusive(opts); err != nil {
		return err
	}
	if err := e.checkEgressExclusive(opts); err != nil {
		return err
	}
	if binder, ok := opts.Renderer.(RuntimeBinder); ok {
		binder.BindRuntime(e.rt)
	}
	e.opts = opts
	e.configured = true
	return nil
}

func (e *Engine) checkIngressExclusive(opts Options) error {
	var selected []string
	if opts.Source != nil {
		selected = append(selected, "engine source")
	}
	if e.userInput != nil {
		selected = append(selected, "user input worker")
	}
	if e.mode.asyncIn() {
		selected = append(selected, "asynchronous ingress ("+e.mode.String()+" mode)")
	}
	return exactlyOne("ingress", selected)
}

func (e *Engine) checkEgressExclusive(opts Options) error {
	var selected []string
	if opts.Sink != nil {
		selected = append(selected, "engine sink")
	}
	if e.userOutput != nil {
		selected = append(selected, "user output worker")
	}
	if opts.Renderer != nil {
		selected = append(selected, "renderer")
	}
	if e.mode.asyncOut() {
		selected = append(selected, "asynchronous egress ("+e.mode.String()+" mode)")
	}
	return exactlyOne("egress", selected)
}

// Start assembles the graph and spawns the worker threads, returning
// immediately. Failures after start reach the OnFailure observer.
func (e *Engine) Start() error {
	mgr, err := e.buildGraph()
	if err != nil {
		return err
	}
	e.log.Info("engine starting", zap.String("mode", e.mode.String()))
	return mgr.Start()
}

// Exec assembles the graph and runs it, blocking the calling thread until
// the pipeline stops. It returns the first stage failure, if any.
func (e *Engine) Exec() error {
	mgr, err := e.buildGraph()
	if err != nil {
		return err
	}
	e.log.Info("engine executing", zap.String("mode", e.mode.String()))
	return mgr.Run()
}

// Stop stops the pipeline: clears the running flag, closes every queue and
// joins every worker thread. Idempotent; callable internally or externally.
func (e *Engine) Stop() {
	e.mu.Lock()
	mgr := e.mgr
	e.mu.Unlock()
	if mgr != nil {
		mgr.Stop()
	}
}

// IsRunning reports whether the pipeline is running: true after Start or
// Exec and before Stop (or stream end / failure), false otherwise.
func (e *Engine) IsRunning() bool {
	return e.rt.IsRunning()
}

// Wait blocks until the pipeline stops and returns the first stage failure.
func (e *Engine) Wait() error {
	e.mu.Lock()
	mgr := e.mgr
	e.mu.Unlock()
	if mgr == nil {
		return nil
	}
	return mgr.Wait()
}

// Reset stops the pipeline if running and clears the whole configuration,
// returning the engine to its pre-configuration state for reuse.
func (e *Engine) Reset() {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mgr != nil {
		e.mgr.Reset()
		e.mgr = nil
	}
	e.opts = Options{}
	e.userInput = nil
	e.userPost = nil
	e.userOutput = nil
	e.configured = false
	e.seq.Reset()
}
