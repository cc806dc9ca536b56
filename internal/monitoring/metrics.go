package monitoring

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Item metrics
	ItemsProcessed *prometheus.CounterVec
	ItemsConsumed  prometheus.Counter
	ItemsHeld      *prometheus.GaugeVec

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec

	// Queue metrics
	QueueDepth *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunning prometheus.Gauge
	PipelineStarts  prometheus.Counter
	Uptime          prometheus.Gauge
	startTime       time.Time

	// HTTP metrics (ops surface)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	tracker  *Tracker

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON status API
type Snapshot struct {
	ItemsProcessed int64            `json:"items_processed"`
	ItemsConsumed  int64            `json:"items_consumed"`
	StageErrors    int64            `json:"stage_errors"`
	QueueDepths    []int            `json:"queue_depths"`
	Latency        LatencySummary   `json:"latency"`
	PerStage       map[string]int64 `json:"per_stage"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		tracker:   NewTracker(defaultWindow),

		ItemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowos_items_processed_total",
			Help: "Items processed, by stage",
		}, []string{"stage"}),

		ItemsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowos_items_consumed_total",
			Help: "Items consumed at egress",
		}),

		ItemsHeld: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowos_items_held",
			Help: "Items buffered inside a stage (e.g. the orderer)",
		}, []string{"stage"}),

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowos_stage_duration_seconds",
			Help:    "Per-item processing duration, by stage",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"stage"}),

		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowos_stage_errors_total",
			Help: "Fatal stage failures, by stage",
		}, []string{"stage"}),

		QueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowos_queue_depth",
			Help: "Current queue length, by graph position",
		}, []string{"queue"}),

		PipelineRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "flowos_pipeline_running",
			Help: "Whether the pipeline is running (1) or stopped (0)",
		}),

		PipelineStarts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowos_pipeline_starts_total",
			Help: "Pipeline starts since process launch",
		}),

		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "flowos_uptime_seconds",
			Help: "Process uptime in seconds",
		}),

		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowos_http_requests_total",
			Help: "Ops HTTP requests",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowos_http_request_duration_seconds",
			Help:    "Ops HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.snapshot.PerStage = make(map[string]int64)
	return m
}

// InstrumentUnit wraps a processing unit with duration and count metrics.
func (m *Metrics) InstrumentUnit(stage string, u pipeline.Unit) pipeline.Unit {
	return pipeline.UnitFunc(func(ctx context.Context, item *pipeline.Item) (*pipeline.Item, error) {
		start := time.Now()
		out, err := u.Process(ctx, item)
		m.RecordStage(stage, time.Since(start), err)
		return out, err
	})
}

// InstrumentSink wraps an egress sink with consumption metrics.
func (m *Metrics) InstrumentSink(stage string, s pipeline.Sink) pipeline.Sink {
	return pipeline.SinkFunc(func(ctx context.Context, item *pipeline.Item) error {
		start := time.Now()
		err := s.Consume(ctx, item)
		m.RecordStage(stage, time.Since(start), err)
		if err == nil && !item.Last {
			m.RecordConsumed()
		}
		return err
	})
}

// RecordStage records one item passing through a stage
func (m *Metrics) RecordStage(stage string, d time.Duration, err error) {
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
		m.mu.Lock()
		m.snapshot.StageErrors++
		m.mu.Unlock()
		return
	}
	m.ItemsProcessed.WithLabelValues(stage).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.tracker.Observe(d)

	m.mu.Lock()
	m.snapshot.ItemsProcessed++
	m.snapshot.PerStage[stage]++
	m.mu.Unlock()
}

// RecordConsumed records one item leaving the pipeline at egress
func (m *Metrics) RecordConsumed() {
	m.ItemsConsumed.Inc()
	m.mu.Lock()
	m.snapshot.ItemsConsumed++
	m.mu.Unlock()
}

// RecordRunning records the pipeline running state
func (m *Metrics) RecordRunning(running bool) {
	if running {
		m.PipelineRunning.Set(1)
		m.PipelineStarts.Inc()
	} else {
		m.PipelineRunning.Set(0)
	}
}

// ObserveQueueDepths records current queue lengths in graph order
func (m *Metrics) ObserveQueueDepths(depths []int) {
	for i, d := range depths {
		m.QueueDepth.WithLabelValues(queueLabel(i)).Set(float64(d))
	}
	m.mu.Lock()
	m.snapshot.QueueDepths = depths
	m.mu.Unlock()
}

// RecordHTTPRequest records an ops HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// GetSnapshot returns current values for the JSON status API
func (m *Metrics) GetSnapshot() Snapshot {
	m.Uptime.Set(time.Since(m.startTime).Seconds())

	m.mu.RLock()
	snap := m.snapshot
	perStage := make(map[string]int64, len(m.snapshot.PerStage))
	for k, v := range m.snapshot.PerStage {
		perStage[k] = v
	}
	m.mu.RUnlock()

	snap.PerStage = perStage
	snap.Latency = m.tracker.Summary()
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}

func queueLabel(i int) string {
	return "q" + strconv.Itoa(i)
}
