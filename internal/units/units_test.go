package units

import (
	"context"
	"hash/crc32"
	"testing"
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/config"
	"github.com/GriffinCanCode/FlowOS/engine/internal/engine"
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumFillsFrame(t *testing.T) {
	frame := &Frame{Data: []byte("payload bytes")}
	item := &pipeline.Item{Payload: frame}

	out, err := Checksum{}.Process(context.Background(), item)
	require.NoError(t, err)
	require.Same(t, item, out)
	assert.Equal(t, crc32.ChecksumIEEE(frame.Data), frame.Checksum)
}

func TestChecksumIgnoresForeignPayload(t *testing.T) {
	item := &pipeline.Item{Payload: "not a frame"}
	out, err := Checksum{}.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, out)
}

func TestDelayForwardsItem(t *testing.T) {
	item := &pipeline.Item{Seq: 3}
	start := time.Now()
	out, err := Delay{D: 10 * time.Millisecond}.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Same(t, item, out)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestDelayHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := Delay{D: time.Minute}.Process(ctx, &pipeline.Item{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFrameGeneratorEndsStream(t *testing.T) {
	gen := NewFrameGenerator(GeneratorOptions{Frames: 3, FrameBytes: 32})

	for i := 0; i < 3; i++ {
		item, err := gen.Generate(context.Background())
		require.NoError(t, err)
		frame, ok := item.Payload.(*Frame)
		require.True(t, ok)
		assert.Equal(t, i, frame.Index)
		assert.Len(t, frame.Data, 32)
	}

	_, err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrEndOfStream)
	assert.Equal(t, 3, gen.Produced())
}

func TestFrameGeneratorRateLimited(t *testing.T) {
	gen := NewFrameGenerator(GeneratorOptions{
		Frames:      5,
		FrameBytes:  8,
		RatePerSec:  200,
		RateBurst:   1,
		RateLimited: true,
	})

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := gen.Generate(context.Background())
		require.NoError(t, err)
	}
	// Burst 1 at 200/s: four waits of 5ms after the first frame.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestFrameGeneratorCancelledWhileWaiting(t *testing.T) {
	gen := NewFrameGenerator(GeneratorOptions{
		Frames:      10,
		FrameBytes:  8,
		RatePerSec:  0.1,
		RateLimited: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := gen.Generate(ctx)
	require.NoError(t, err)

	cancel()
	_, err = gen.Generate(ctx)
	assert.ErrorIs(t, err, pipeline.ErrEndOfStream)
}

func TestStatsSinkCountsAndTracks(t *testing.T) {
	sink := NewStatsSink(nil)

	for i := 0; i < 4; i++ {
		err := sink.Consume(context.Background(), &pipeline.Item{
			Seq:     uint64(i),
			Payload: &Frame{Index: i, ProducedAt: time.Now().Add(-time.Millisecond)},
		})
		require.NoError(t, err)
	}
	require.NoError(t, sink.Consume(context.Background(), &pipeline.Item{Seq: 4, Last: true}))

	assert.Equal(t, 4, sink.Consumed())
	summary := sink.Latency()
	assert.Equal(t, 4, summary.Samples)
	assert.Greater(t, summary.MeanMs, 0.0)
}

func TestBuildOptionsDefaultChain(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.Frames = 5
	cfg.Demo.RateLimited = false

	opts, sink := BuildOptions(cfg, nil, nil)
	require.NotNil(t, sink)
	require.NotNil(t, opts.Source)
	require.NotNil(t, opts.ReplicaFactory)
	assert.Equal(t, cfg.Engine.QueueCapacity, opts.QueueCapacity)
	assert.Equal(t, cfg.Engine.Replicas, opts.Replicas)

	chain := opts.ReplicaFactory(0)
	require.Len(t, chain, 1)
	assert.IsType(t, Checksum{}, chain[0])
}

func TestBuildOptionsFromSpec(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.Frames = 5
	cfg.Demo.RateLimited = false

	spec := &config.PipelineSpec{
		Name:          "custom",
		QueueCapacity: 16,
		Replicas:      4,
		Stages: []config.StageSpec{
			{Name: "normalize", Kind: "passthrough", Position: "input"},
			{Name: "sum", Kind: "checksum", Position: "core"},
			{Name: "settle", Kind: "delay", DelayMs: 1, Position: "post"},
		},
	}

	opts, _ := BuildOptions(cfg, spec, nil)
	assert.Equal(t, 16, opts.QueueCapacity)
	assert.Equal(t, 4, opts.Replicas)
	require.Len(t, opts.InputUnits, 1)
	require.Len(t, opts.PostUnits, 1)
	require.NotNil(t, opts.ReplicaFactory)
	assert.IsType(t, Delay{}, opts.PostUnits[0])
}

func TestDemoPipelineEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.QueueCapacity = 8
	cfg.Engine.Replicas = 2
	cfg.Demo.Frames = 20
	cfg.Demo.FrameBytes = 64
	cfg.Demo.RateLimited = false

	opts, sink := BuildOptions(cfg, nil, nil)
	eng := engine.New(engine.ModeFull, nil)
	require.NoError(t, eng.Configure(opts))
	require.NoError(t, eng.Exec())

	assert.Equal(t, 20, sink.Consumed())
	assert.False(t, eng.IsRunning())
}
