package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker(16)
	summary := tr.Summary()
	assert.Equal(t, 0, summary.Samples)
	assert.Zero(t, summary.MeanMs)
}

func TestTrackerSingleSample(t *testing.T) {
	tr := NewTracker(16)
	tr.Observe(10 * time.Millisecond)

	summary := tr.Summary()
	assert.Equal(t, 1, summary.Samples)
	assert.InDelta(t, 10.0, summary.MeanMs, 0.01)
	assert.Zero(t, summary.StdMs)
}

func TestTrackerPercentiles(t *testing.T) {
	tr := NewTracker(128)
	for i := 1; i <= 100; i++ {
		tr.Observe(time.Duration(i) * time.Millisecond)
	}

	summary := tr.Summary()
	assert.Equal(t, 100, summary.Samples)
	assert.InDelta(t, 50.5, summary.MeanMs, 0.1)
	assert.InDelta(t, 50.0, summary.P50Ms, 1.5)
	assert.InDelta(t, 99.0, summary.P99Ms, 1.5)
	assert.Greater(t, summary.StdMs, 0.0)
}

func TestTrackerWindowWraps(t *testing.T) {
	tr := NewTracker(4)
	// The first large samples are overwritten by the wrap.
	tr.Observe(time.Second)
	tr.Observe(time.Second)
	for i := 0; i < 4; i++ {
		tr.Observe(time.Millisecond)
	}

	summary := tr.Summary()
	assert.Equal(t, 4, summary.Samples)
	assert.InDelta(t, 1.0, summary.MeanMs, 0.01)
}

func TestTrackerDefaultWindow(t *testing.T) {
	tr := NewTracker(0)
	assert.Len(t, tr.samples, defaultWindow)
}
