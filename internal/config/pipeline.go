package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// PipelineSpec describes a pipeline graph in a YAML file, used by the demo
// binary to override the built-in chain.
type PipelineSpec struct {
	Name          string      `yaml:"name"`
	QueueCapacity int         `yaml:"queue_capacity"`
	Replicas      int         `yaml:"replicas"`
	Stages        []StageSpec `yaml:"stages"`
}

// StageSpec describes one processing stage.
type StageSpec struct {
	Name string `yaml:"name"`
	// Kind selects a built-in unit: "checksum", "delay", "passthrough".
	Kind string `yaml:"kind"`
	// DelayMs applies to the "delay" kind.
	DelayMs int `yaml:"delay_ms"`
	// Position is "input", "core" or "post". Core stages are replicated.
	Position string `yaml:"position"`
}

var stageKinds = map[string]bool{
	"checksum":    true,
	"delay":       true,
	"passthrough": true,
}

var stagePositions = map[string]bool{
	"input": true,
	"core":  true,
	"post":  true,
}

// LoadPipelineSpec reads and validates a pipeline spec from a YAML file.
func LoadPipelineSpec(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline spec: %w", err)
	}
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks stage names, kinds and positions.
func (s *PipelineSpec) Validate() error {
	if s.QueueCapacity < 0 {
		return fmt.Errorf("pipeline spec: queue_capacity must be non-negative, got %d", s.QueueCapacity)
	}
	if s.Replicas < 0 {
		return fmt.Errorf("pipeline spec: replicas must be non-negative, got %d", s.Replicas)
	}
	for i, st := range s.Stages {
		if st.Name == "" {
			return fmt.Errorf("pipeline spec: stage %d has no name", i)
		}
		if !stageKinds[st.Kind] {
			return fmt.Errorf("pipeline spec: stage %q has unknown kind %q", st.Name, st.Kind)
		}
		if !stagePositions[st.Position] {
			return fmt.Errorf("pipeline spec: stage %q has unknown position %q", st.Name, st.Position)
		}
		if st.Kind == "delay" && st.DelayMs <= 0 {
			return fmt.Errorf("pipeline spec: delay stage %q needs a positive delay_ms", st.Name)
		}
	}
	return nil
}
