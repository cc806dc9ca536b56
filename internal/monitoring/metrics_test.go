package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prometheus collectors register against the default registry, so the whole
// package shares one Metrics instance.
var testMetrics = New()

func TestInstrumentUnitCounts(t *testing.T) {
	unit := testMetrics.InstrumentUnit("stage-a", pipeline.UnitFunc(
		func(_ context.Context, item *pipeline.Item) (*pipeline.Item, error) {
			return item, nil
		}))

	before := testMetrics.GetSnapshot()
	for i := 0; i < 5; i++ {
		_, err := unit.Process(context.Background(), &pipeline.Item{Seq: uint64(i)})
		require.NoError(t, err)
	}

	snap := testMetrics.GetSnapshot()
	assert.Equal(t, before.ItemsProcessed+5, snap.ItemsProcessed)
	assert.GreaterOrEqual(t, snap.PerStage["stage-a"], int64(5))
}

func TestInstrumentUnitRecordsErrors(t *testing.T) {
	boom := errors.New("bad item")
	unit := testMetrics.InstrumentUnit("stage-err", pipeline.UnitFunc(
		func(_ context.Context, item *pipeline.Item) (*pipeline.Item, error) {
			return nil, boom
		}))

	before := testMetrics.GetSnapshot()
	_, err := unit.Process(context.Background(), &pipeline.Item{})
	require.ErrorIs(t, err, boom)

	snap := testMetrics.GetSnapshot()
	assert.Equal(t, before.StageErrors+1, snap.StageErrors)
}

func TestInstrumentSinkConsumption(t *testing.T) {
	sink := testMetrics.InstrumentSink("egress", pipeline.SinkFunc(
		func(_ context.Context, item *pipeline.Item) error {
			return nil
		}))

	before := testMetrics.GetSnapshot()
	require.NoError(t, sink.Consume(context.Background(), &pipeline.Item{Seq: 0}))
	require.NoError(t, sink.Consume(context.Background(), &pipeline.Item{Seq: 1, Last: true}))

	// The sentinel is not a consumed item.
	snap := testMetrics.GetSnapshot()
	assert.Equal(t, before.ItemsConsumed+1, snap.ItemsConsumed)
}

func TestObserveQueueDepths(t *testing.T) {
	testMetrics.ObserveQueueDepths([]int{3, 0, 7})
	snap := testMetrics.GetSnapshot()
	assert.Equal(t, []int{3, 0, 7}, snap.QueueDepths)
}

func TestSnapshotUptime(t *testing.T) {
	testMetrics.RecordRunning(true)
	testMetrics.RecordRunning(false)
	testMetrics.RecordHTTPRequest("GET", "/status", "200", time.Millisecond)

	snap := testMetrics.GetSnapshot()
	assert.Greater(t, snap.UptimeSeconds, 0.0)
}

func TestQueueLabel(t *testing.T) {
	assert.Equal(t, "q0", queueLabel(0))
	assert.Equal(t, "q12", queueLabel(12))
}
