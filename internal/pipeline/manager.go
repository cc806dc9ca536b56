package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"go.uber.org/zap"
)

// cooperativeIdle is how long a shared thread sleeps after a round in which
// no sub-stage made progress.
const cooperativeIdle = 200 * time.Microsecond

type subKind int

const (
	subInOut subKind = iota // pops input, pushes output
	subOut                  // generator: no input queue
	subIn                   // sink: no output queue
)

// subThread is one stage placement: a unit chain bound to a queue pair on a
// thread. A thread may host several sub-threads, driven round-robin.
type subThread struct {
	kind     subKind
	units    []Unit
	gen      Generator
	sink     Sink
	queueIn  int
	queueOut int

	// Cooperative-mode state, touched only by the owning thread.
	pending []*Item
	genDone bool
	done    bool
}

type workerThread struct {
	id   int
	subs []*subThread
}

// Manager owns the pipeline graph: which stage runs on which thread, which
// queue indices connect them, and the full lifecycle (start, run-and-block,
// stop, reset).
//
// Graph construction rules: queue indices are assigned in increasing order
// (queueIn < queueOut for every stage) and thread ids must be non-decreasing
// as the graph is built, which forces the caller to construct the pipeline
// in topological order. Queue k is the output of position k and the input of
// position k+1.
//
// One goroutine is spawned per distinct thread id. A thread hosting a single
// stage blocks on its queues, which is what propagates back-pressure; a
// thread hosting several stages drives them cooperatively with non-blocking
// queue operations, preserving per-stage FIFO order through pending-output
// slots.
type Manager struct {
	mu           sync.Mutex
	log          *logging.Logger
	rt           *Runtime
	capacity     int
	threads      []*workerThread
	queues       []*Queue
	lastThreadID int
	started      bool

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool

	failMu    sync.Mutex
	failure   error
	onFailure func(error)
}

// NewManager creates a manager whose queues will have the given capacity.
// The runtime carries the running flag shared with every collaborator; log
// may be nil.
func NewManager(capacity int, rt *Runtime, log *logging.Logger) *Manager {
	if rt == nil {
		rt = NewRuntime()
	}
	if log == nil {
		log = logging.NewNop()
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Manager{
		log:          log,
		rt:           rt,
		capacity:     capacity,
		lastThreadID: -1,
	}
}

// Runtime returns the shared runtime flags.
func (m *Manager) Runtime() *Runtime {
	return m.rt
}

// Add places a stage of units on threadID, reading queueIn and writing
// queueOut. Queues are created on first reference.
func (m *Manager) Add(threadID int, units []Unit, queueIn, queueOut int) error {
	if queueIn < 0 || queueOut < 0 {
		return configErrorf("add", "queue indices must be non-negative, got %d->%d", queueIn, queueOut)
	}
	if queueIn >= queueOut {
		return configErrorf("add", "input queue %d must precede output queue %d", queueIn, queueOut)
	}
	if err := validUnits(units); err != nil {
		return err
	}
	return m.place(threadID, &subThread{kind: subInOut, units: units, queueIn: queueIn, queueOut: queueOut}, queueOut)
}

// AddGenerator places an ingress stage on threadID: gen produces items, the
// optional trailing units transform them, and results are pushed to
// queueOut. When gen returns ErrEndOfStream a Last sentinel is forwarded
// through the units and the generator retires.
func (m *Manager) AddGenerator(threadID int, gen Generator, units []Unit, queueOut int) error {
	if gen == nil {
		return configErrorf("add-generator", "generator is nil")
	}
	if queueOut < 0 {
		return configErrorf("add-generator", "output queue must be non-negative, got %d", queueOut)
	}
	return m.place(threadID, &subThread{kind: subOut, gen: gen, units: units, queueIn: -1, queueOut: queueOut}, queueOut)
}

// AddSink places an egress stage on threadID draining queueIn. Consuming a
// Last item triggers a graceful pipeline stop.
func (m *Manager) AddSink(threadID int, sink Sink, queueIn int) error {
	if sink == nil {
		return configErrorf("add-sink", "sink is nil")
	}
	if queueIn < 0 {
		return configErrorf("add-sink", "input queue must be non-negative, got %d", queueIn)
	}
	return m.place(threadID, &subThread{kind: subIn, sink: sink, queueIn: queueIn, queueOut: -1}, queueIn)
}

func validUnits(units []Unit) error {
	if len(units) == 0 {
		return configErrorf("add", "stage has no units")
	}
	for i, u := range units {
		if u == nil {
			return configErrorf("add", "unit %d is nil", i)
		}
	}
	return nil
}

func (m *Manager) place(threadID int, s *subThread, maxQueue int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return configErrorf("add", "pipeline already started")
	}
	if threadID < 0 {
		return configErrorf("add", "thread id must be non-negative, got %d", threadID)
	}
	if threadID < m.lastThreadID {
		return configErrorf("add", "thread ids must be non-decreasing, got %d after %d", threadID, m.lastThreadID)
	}
	if threadID == m.lastThreadID {
		last := m.threads[len(m.threads)-1]
		last.subs = append(last.subs, s)
	} else {
		m.threads = append(m.threads, &workerThread{id: threadID, subs: []*subThread{s}})
		m.lastThreadID = threadID
	}
	m.ensureQueues(maxQueue + 1)
	return nil
}

func (m *Manager) ensureQueues(n int) {
	for len(m.queues) < n {
		m.queues = append(m.queues, NewQueue(m.capacity))
	}
}

// OnFailure registers an observer invoked once with the first stage failure.
// Useful when the pipeline was started asynchronously with Start.
func (m *Manager) OnFailure(fn func(error)) {
	m.failMu.Lock()
	m.onFailure = fn
	m.failMu.Unlock()
}

// Start spawns one worker goroutine per distinct thread id and returns
// immediately.
func (m *Manager) Start() error {
	threads, err := m.beginRun()
	if err != nil {
		return err
	}
	for _, t := range threads {
		m.spawn(t)
	}
	return nil
}

// Run spawns every worker thread except the last, executes the last one on
// the calling goroutine (saving one thread compared to Start plus a manual
// wait), and blocks until the pipeline stops. It returns the first stage
// failure, if any.
func (m *Manager) Run() error {
	threads, err := m.beginRun()
	if err != nil {
		return err
	}
	for _, t := range threads[:len(threads)-1] {
		m.spawn(t)
	}
	m.runThread(threads[len(threads)-1])
	m.initiateStop()
	return m.Wait()
}

func (m *Manager) beginRun() ([]*workerThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil, configErrorf("start", "pipeline already started")
	}
	if len(m.threads) == 0 {
		return nil, configErrorf("start", "no stages configured")
	}
	m.failMu.Lock()
	m.failure = nil
	m.failMu.Unlock()
	m.stopping.Store(false)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.started = true
	m.rt.setRunning(true)
	m.log.Info("pipeline starting",
		zap.Int("threads", len(m.threads)),
		zap.Int("queues", len(m.queues)),
		zap.Int("capacity", m.capacity))
	return m.threads, nil
}

func (m *Manager) spawn(t *workerThread) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runThread(t)
	}()
}

// Stop clears the running flag, closes every queue (waking any blocked
// waiter) and joins every worker thread. Idempotent.
func (m *Manager) Stop() {
	m.initiateStop()
	m.wg.Wait()
	m.mu.Lock()
	m.started = false
	m.mu.Unlock()
}

// Wait blocks until every spawned worker has exited and returns the first
// recorded stage failure.
func (m *Manager) Wait() error {
	m.wg.Wait()
	m.mu.Lock()
	m.started = false
	m.mu.Unlock()
	return m.Failure()
}

// Failure returns the first recorded stage failure, or nil.
func (m *Manager) Failure() error {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failure
}

// IsRunning reflects the shared running flag.
func (m *Manager) IsRunning() bool {
	return m.rt.IsRunning()
}

// Reset stops the pipeline if running, then clears the graph and the queue
// list, returning the manager to its pre-configuration state for reuse.
func (m *Manager) Reset() {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = nil
	m.queues = nil
	m.lastThreadID = -1
	m.failMu.Lock()
	m.failure = nil
	m.failMu.Unlock()
}

// QueueDepths returns the current length of every queue in graph order.
func (m *Manager) QueueDepths() []int {
	m.mu.Lock()
	queues := m.queues
	m.mu.Unlock()
	depths := make([]int, len(queues))
	for i, q := range queues {
		depths[i] = q.Len()
	}
	return depths
}

// initiateStop is the shared teardown path: clear the running flag, cancel
// unit contexts and close every queue so blocked workers wake. Safe to call
// from worker goroutines; it does not join.
func (m *Manager) initiateStop() {
	if !m.stopping.CompareAndSwap(false, true) {
		return
	}
	m.rt.setRunning(false)
	m.mu.Lock()
	cancel := m.cancel
	queues := m.queues
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	for _, q := range queues {
		q.Close()
	}
	m.log.Info("pipeline stopping")
}

// fail records the first stage failure and tears the pipeline down. Context
// cancellation during an already-running stop is not a failure.
func (m *Manager) fail(threadID int, s *subThread, err error) {
	if m.stopping.Load() && errors.Is(err, context.Canceled) {
		return
	}
	stageErr := &StageError{ThreadID: threadID, QueueIn: s.queueIn, QueueOut: s.queueOut, Err: err}

	m.failMu.Lock()
	first := m.failure == nil
	if first {
		m.failure = stageErr
	}
	observer := m.onFailure
	m.failMu.Unlock()

	if first {
		m.log.Error("stage failed, stopping pipeline",
			zap.Int("thread", threadID),
			zap.Int("queue_in", s.queueIn),
			zap.Int("queue_out", s.queueOut),
			zap.Error(err))
		if observer != nil {
			observer(stageErr)
		}
	}
	m.initiateStop()
}

func (m *Manager) runThread(t *workerThread) {
	m.log.Debug("worker thread started", zap.Int("thread", t.id), zap.Int("stages", len(t.subs)))
	defer m.log.Debug("worker thread exited", zap.Int("thread", t.id))

	if len(t.subs) == 1 {
		m.runBlocking(t.id, t.subs[0])
		return
	}
	m.runCooperative(t)
}

// runBlocking drives a thread's single stage with blocking queue operations.
func (m *Manager) runBlocking(threadID int, s *subThread) {
	for m.rt.IsRunning() {
		switch s.kind {
		case subOut:
			if done := m.blockingGenerate(threadID, s); done {
				return
			}
		case subInOut:
			item, ok := m.queues[s.queueIn].WaitPop()
			if !ok {
				return
			}
			outs, err := m.applyUnits(s, item)
			if err != nil {
				m.fail(threadID, s, err)
				return
			}
			for _, out := range outs {
				if !m.queues[s.queueOut].WaitPush(out) {
					return
				}
			}
		case subIn:
			item, ok := m.queues[s.queueIn].WaitPop()
			if !ok {
				return
			}
			if err := s.sink.Consume(m.ctx, item); err != nil {
				m.fail(threadID, s, err)
				return
			}
			if item.Last {
				m.initiateStop()
				return
			}
		}
	}
	// The running flag was cleared by a peer (GUI, external stop request):
	// make sure blocked threads get woken too.
	m.initiateStop()
}

// blockingGenerate runs one generator step. It returns true once the
// generator has retired (end of stream, closed queue or failure).
func (m *Manager) blockingGenerate(threadID int, s *subThread) bool {
	item, err := s.gen.Generate(m.ctx)
	switch {
	case errors.Is(err, ErrEndOfStream):
		item = EndOfStream()
	case err != nil:
		m.fail(threadID, s, err)
		return true
	case item == nil:
		return false
	}
	outs, uerr := m.applyUnits(s, item)
	if uerr != nil {
		m.fail(threadID, s, uerr)
		return true
	}
	retired := false
	for _, out := range outs {
		if out.Last {
			retired = true
		}
		if !m.queues[s.queueOut].WaitPush(out) {
			return true
		}
	}
	return retired
}

// runCooperative round-robins a thread's stages, draining whatever is
// available at each step. Output order per stage is preserved through the
// pending slice; a round with no progress yields briefly.
func (m *Manager) runCooperative(t *workerThread) {
	for m.rt.IsRunning() {
		progress := false
		active := false
		for _, s := range t.subs {
			if s.done {
				continue
			}
			active = true
			p, err := m.stepSub(t.id, s)
			if err != nil {
				m.fail(t.id, s, err)
				return
			}
			if p {
				progress = true
			}
		}
		if !active {
			return
		}
		if !progress {
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(cooperativeIdle):
			}
		}
	}
	m.initiateStop()
}

// stepSub performs one non-blocking step of a stage: flush pending outputs,
// then take and process at most one item. Reports whether anything moved.
func (m *Manager) stepSub(threadID int, s *subThread) (bool, error) {
	progress := false
	for len(s.pending) > 0 {
		if !m.queues[s.queueOut].TryPush(s.pending[0]) {
			if m.queues[s.queueOut].Closed() {
				s.pending = nil
				s.done = true
			}
			return progress, nil
		}
		s.pending = s.pending[1:]
		progress = true
	}

	switch s.kind {
	case subOut:
		if s.genDone {
			s.done = true
			return progress, nil
		}
		item, err := s.gen.Generate(m.ctx)
		switch {
		case errors.Is(err, ErrEndOfStream):
			item = EndOfStream()
			s.genDone = true
		case err != nil:
			return progress, err
		case item == nil:
			return progress, nil
		}
		outs, uerr := m.applyUnits(s, item)
		if uerr != nil {
			return progress, uerr
		}
		for _, out := range outs {
			if out.Last {
				s.genDone = true
			}
		}
		s.pending = append(s.pending, outs...)
		return true, nil

	case subInOut:
		item, ok := m.queues[s.queueIn].TryPop()
		if !ok {
			if m.queues[s.queueIn].Closed() {
				s.done = true
			}
			return progress, nil
		}
		outs, err := m.applyUnits(s, item)
		if err != nil {
			return progress, err
		}
		s.pending = append(s.pending, outs...)
		return true, nil

	case subIn:
		item, ok := m.queues[s.queueIn].TryPop()
		if !ok {
			if m.queues[s.queueIn].Closed() {
				s.done = true
			}
			return progress, nil
		}
		if err := s.sink.Consume(m.ctx, item); err != nil {
			return progress, err
		}
		if item.Last {
			s.done = true
			m.initiateStop()
		}
		return true, nil
	}
	return progress, nil
}

// applyUnits runs a stage's units strictly in list order. Each unit maps one
// item to zero or one item; units implementing Emitter may additionally
// release buffered items, which flow through the remaining units in order.
func (m *Manager) applyUnits(s *subThread, item *Item) ([]*Item, error) {
	items := []*Item{item}
	for _, u := range s.units {
		next := make([]*Item, 0, len(items))
		for _, it := range items {
			out, err := u.Process(m.ctx, it)
			if err != nil {
				return nil, err
			}
			if out != nil {
				next = append(next, out)
			}
		}
		if e, ok := u.(Emitter); ok {
			next = append(next, e.Emit()...)
		}
		items = next
	}
	return items, nil
}

// Boundary port operations. They forward to the first (ingress) or last
// (egress) queue; the caller-facing mutual-exclusion rules against
// configured producers and consumers live in the engine layer.

// TryEmplace moves an item onto the ingress queue without blocking.
func (m *Manager) TryEmplace(item *Item) bool {
	q := m.firstQueue()
	return q != nil && q.TryPush(item)
}

// WaitAndEmplace moves an item onto the ingress queue, blocking until space.
func (m *Manager) WaitAndEmplace(item *Item) bool {
	q := m.firstQueue()
	return q != nil && q.WaitPush(item)
}

// TryPush copies an item onto the ingress queue without blocking.
func (m *Manager) TryPush(item *Item) bool {
	q := m.firstQueue()
	return q != nil && q.TryPush(item.clone())
}

// WaitAndPush copies an item onto the ingress queue, blocking until space.
func (m *Manager) WaitAndPush(item *Item) bool {
	q := m.firstQueue()
	return q != nil && q.WaitPush(item.clone())
}

// TryPop retrieves an item from the egress queue without blocking.
func (m *Manager) TryPop() (*Item, bool) {
	q := m.lastQueue()
	if q == nil {
		return nil, false
	}
	return q.TryPop()
}

// WaitAndPop retrieves an item from the egress queue, blocking until one is
// available or the pipeline stops.
func (m *Manager) WaitAndPop() (*Item, bool) {
	q := m.lastQueue()
	if q == nil {
		return nil, false
	}
	return q.WaitPop()
}

func (m *Manager) firstQueue() *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queues) == 0 {
		return nil
	}
	return m.queues[0]
}

func (m *Manager) lastQueue() *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queues) == 0 {
		return nil
	}
	return m.queues[len(m.queues)-1]
}
