package units

import (
	"context"
	"hash/crc32"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
)

// Checksum computes a CRC-32 over the frame payload. It stands in for real
// per-frame work that scales with payload size.
type Checksum struct{}

// Process implements pipeline.Unit.
func (Checksum) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Item, error) {
	if frame, ok := item.Payload.(*Frame); ok {
		frame.Checksum = crc32.ChecksumIEEE(frame.Data)
	}
	return item, nil
}

// Delay sleeps for a fixed duration per item, for exercising back-pressure
// and out-of-order completion across replicas.
type Delay struct {
	D time.Duration
}

// Process implements pipeline.Unit.
func (d Delay) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Item, error) {
	select {
	case <-time.After(d.D):
		return item, nil
	case <-ctx.Done():
		return item, nil
	}
}

// Passthrough forwards items unchanged.
type Passthrough struct{}

// Process implements pipeline.Unit.
func (Passthrough) Process(ctx context.Context, item *pipeline.Item) (*pipeline.Item, error) {
	return item, nil
}
