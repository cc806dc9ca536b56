package units

import (
	"context"
	"math/rand"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"golang.org/x/time/rate"
)

// FrameGenerator produces synthetic frames, optionally paced by a rate
// limiter to mimic a fixed-fps capture device. It returns
// pipeline.ErrEndOfStream after the configured number of frames.
type FrameGenerator struct {
	frames     int
	frameBytes int
	produced   int
	limiter    *rate.Limiter
	rng        *rand.Rand
}

// GeneratorOptions configures a FrameGenerator.
type GeneratorOptions struct {
	// Frames is the number of frames to produce before end of stream.
	// Zero or negative means unbounded.
	Frames int

	// FrameBytes is the payload size per frame.
	FrameBytes int

	// RatePerSec paces production when RateLimited is set.
	RatePerSec float64
	RateBurst  int

	RateLimited bool

	// Seed makes the synthetic bytes reproducible in tests.
	Seed int64
}

// NewFrameGenerator creates a generator from options.
func NewFrameGenerator(opts GeneratorOptions) *FrameGenerator {
	if opts.FrameBytes < 1 {
		opts.FrameBytes = 1
	}
	g := &FrameGenerator{
		frames:     opts.Frames,
		frameBytes: opts.FrameBytes,
		rng:        rand.New(rand.NewSource(opts.Seed)),
	}
	if opts.RateLimited && opts.RatePerSec > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return g
}

// Generate implements pipeline.Generator.
func (g *FrameGenerator) Generate(ctx context.Context) (*pipeline.Item, error) {
	if g.frames > 0 && g.produced >= g.frames {
		return nil, pipeline.ErrEndOfStream
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			// Context cancelled mid-wait; treat as end of stream so the
			// manager retires the source instead of failing the run.
			return nil, pipeline.ErrEndOfStream
		}
	}

	data := make([]byte, g.frameBytes)
	g.rng.Read(data)
	frame := &Frame{
		Index:      g.produced,
		Data:       data,
		ProducedAt: time.Now(),
	}
	g.produced++
	return &pipeline.Item{Payload: frame}, nil
}

// Produced reports how many frames have been generated so far.
func (g *FrameGenerator) Produced() int {
	return g.produced
}
