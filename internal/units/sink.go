package units

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"github.com/GriffinCanCode/FlowOS/engine/internal/monitoring"
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"go.uber.org/zap"
)

// StatsSink consumes frames, tracks end-to-end latency from production to
// consumption and logs a summary when the stream ends.
type StatsSink struct {
	mu       sync.Mutex
	consumed int
	tracker  *monitoring.Tracker
	log      *logging.Logger
}

// NewStatsSink creates a sink. log may be nil.
func NewStatsSink(log *logging.Logger) *StatsSink {
	if log == nil {
		log = logging.NewNop()
	}
	return &StatsSink{
		tracker: monitoring.NewTracker(0),
		log:     log.Named("sink"),
	}
}

// Consume implements pipeline.Sink.
func (s *StatsSink) Consume(ctx context.Context, item *pipeline.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.Last {
		summary := s.tracker.Summary()
		s.log.Info("stream complete",
			zap.Int("frames", s.consumed),
			zap.Float64("latency_mean_ms", summary.MeanMs),
			zap.Float64("latency_p50_ms", summary.P50Ms),
			zap.Float64("latency_p99_ms", summary.P99Ms))
		return nil
	}
	if frame, ok := item.Payload.(*Frame); ok && !frame.ProducedAt.IsZero() {
		s.tracker.Observe(time.Since(frame.ProducedAt))
	}
	s.consumed++
	return nil
}

// Consumed reports how many non-sentinel items were consumed.
func (s *StatsSink) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// Latency returns the current latency summary.
func (s *StatsSink) Latency() monitoring.LatencySummary {
	return s.tracker.Summary()
}
