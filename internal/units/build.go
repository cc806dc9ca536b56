package units

import (
	"time"

	"github.com/GriffinCanCode/FlowOS/engine/internal/config"
	"github.com/GriffinCanCode/FlowOS/engine/internal/engine"
	"github.com/GriffinCanCode/FlowOS/engine/internal/logging"
	"github.com/GriffinCanCode/FlowOS/engine/internal/pipeline"
)

// BuildOptions assembles engine options for the demo workload. A nil spec
// uses the built-in chain (checksum in the core group); a spec from YAML
// overrides the stage layout and may override capacity and replica count.
func BuildOptions(cfg *config.Config, spec *config.PipelineSpec, log *logging.Logger) (engine.Options, *StatsSink) {
	sink := NewStatsSink(log)
	opts := engine.Options{
		QueueCapacity: cfg.Engine.QueueCapacity,
		Replicas:      cfg.Engine.Replicas,
		Source: NewFrameGenerator(GeneratorOptions{
			Frames:      cfg.Demo.Frames,
			FrameBytes:  cfg.Demo.FrameBytes,
			RatePerSec:  cfg.Demo.RatePerSec,
			RateBurst:   cfg.Demo.RateBurst,
			RateLimited: cfg.Demo.RateLimited,
			Seed:        time.Now().UnixNano(),
		}),
		Sink: sink,
	}

	var core []config.StageSpec
	if spec == nil {
		core = []config.StageSpec{{Name: "checksum", Kind: "checksum", Position: "core"}}
	} else {
		if spec.QueueCapacity > 0 {
			opts.QueueCapacity = spec.QueueCapacity
		}
		if spec.Replicas > 0 {
			opts.Replicas = spec.Replicas
		}
		for _, st := range spec.Stages {
			switch st.Position {
			case "input":
				opts.InputUnits = append(opts.InputUnits, fromStage(st))
			case "core":
				core = append(core, st)
			case "post":
				opts.PostUnits = append(opts.PostUnits, fromStage(st))
			}
		}
	}

	if len(core) > 0 {
		opts.ReplicaFactory = func(replica int) []pipeline.Unit {
			chain := make([]pipeline.Unit, 0, len(core))
			for _, st := range core {
				chain = append(chain, fromStage(st))
			}
			return chain
		}
	}
	return opts, sink
}

func fromStage(st config.StageSpec) pipeline.Unit {
	switch st.Kind {
	case "checksum":
		return Checksum{}
	case "delay":
		return Delay{D: time.Duration(st.DelayMs) * time.Millisecond}
	default:
		return Passthrough{}
	}
}
