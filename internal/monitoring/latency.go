package monitoring

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// defaultWindow is the number of samples kept for latency summaries.
const defaultWindow = 1024

// LatencySummary describes recent per-item processing latency.
type LatencySummary struct {
	Samples int     `json:"samples"`
	MeanMs  float64 `json:"mean_ms"`
	StdMs   float64 `json:"std_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

// Tracker keeps a sliding window of latency samples and computes summary
// statistics on demand.
type Tracker struct {
	mu      sync.Mutex
	samples []float64 // milliseconds, ring buffer
	next    int
	filled  bool
}

// NewTracker creates a tracker holding up to window samples.
func NewTracker(window int) *Tracker {
	if window < 1 {
		window = defaultWindow
	}
	return &Tracker{samples: make([]float64, window)}
}

// Observe records one latency sample.
func (t *Tracker) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[t.next] = float64(d.Microseconds()) / 1000.0
	t.next++
	if t.next == len(t.samples) {
		t.next = 0
		t.filled = true
	}
}

// Summary computes mean, standard deviation and percentiles over the window.
func (t *Tracker) Summary() LatencySummary {
	t.mu.Lock()
	n := t.next
	if t.filled {
		n = len(t.samples)
	}
	window := make([]float64, n)
	copy(window, t.samples[:n])
	t.mu.Unlock()

	if n == 0 {
		return LatencySummary{}
	}
	sort.Float64s(window)
	mean, std := stat.MeanStdDev(window, nil)
	if n == 1 {
		std = 0
	}
	return LatencySummary{
		Samples: n,
		MeanMs:  mean,
		StdMs:   std,
		P50Ms:   stat.Quantile(0.50, stat.Empirical, window, nil),
		P99Ms:   stat.Quantile(0.99, stat.Empirical, window, nil),
	}
}
