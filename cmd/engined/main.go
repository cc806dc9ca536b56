package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/FlowOS/engine/internal/config"
	"github.com/GriffinCanCode/FlowOS/engine/internal/engine"
	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"github.com/GriffinCanCode/FlowOS/engine/internal/monitoring"
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
	"github.com/GriffinCanCode/FlowOS/engine/internal/server"
	"github.com/GriffinCanCode/FlowOS/engine/internal/units"
	"go.uber.org/zap"
)

func main() {
	// Parse flags
	specPath := flag.String("pipeline", "", "Pipeline spec YAML file (optional)")
	singleThread := flag.Bool("single-thread", false, "Run every stage on the calling thread")
	flag.Parse()

	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var spec *config.PipelineSpec
	if *specPath != "" {
		spec, err = config.LoadPipelineSpec(*specPath)
		if err != nil {
			logger.Fatal("failed to load pipeline spec", zap.Error(err))
		}
		logger.Info("pipeline spec loaded", zap.String("name", spec.Name))
	}

	metrics := monitoring.New()
	eng := engine.New(engine.ModeFull, logger)
	eng.SetMetrics(metrics)
	if *singleThread || cfg.Engine.SingleThread {
		eng.DisableMultiThreading()
		logger.Info("multi-threading disabled")
	}

	opts, sink := units.BuildOptions(cfg, spec, logger)
	if err := eng.Configure(opts); err != nil {
		logger.Fatal("configuration rejected", zap.Error(err))
	}

	var ops *server.Server
	if cfg.Ops.Enabled {
		ops = server.New(eng, metrics, logger)
		go func() {
			if err := ops.Run(server.Config{Host: cfg.Ops.Host, Port: cfg.Ops.Port}); err != nil {
				logger.Error("ops server failed", zap.Error(err))
			}
		}()
	}

	// Stop the pipeline on SIGINT/SIGTERM; the run loop below unblocks once
	// every worker thread has joined.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		eng.Stop()
	}()

	err = eng.Exec()

	if ops != nil {
		if cerr := ops.Close(); cerr != nil {
			logger.Error("ops server shutdown failed", zap.Error(cerr))
		}
	}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		logger.Error("pipeline failed",
			zap.Int("thread", stageErr.ThreadID),
			zap.Error(stageErr.Err))
		os.Exit(1)
	}
	logger.Info("pipeline finished",
		zap.Int("frames", sink.Consumed()),
		zap.Float64("latency_p99_ms", sink.Latency().P99Ms))
}
