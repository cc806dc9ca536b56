package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Engine.QueueCapacity)
	assert.Equal(t, 2, cfg.Engine.Replicas)
	assert.Equal(t, "9090", cfg.Ops.Port)
	assert.True(t, cfg.Ops.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "8")
	t.Setenv("REPLICAS", "5")
	t.Setenv("SINGLE_THREAD", "true")
	t.Setenv("OPS_PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEMO_FRAMES", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.QueueCapacity)
	assert.Equal(t, 5, cfg.Engine.Replicas)
	assert.True(t, cfg.Engine.SingleThread)
	assert.Equal(t, "8081", cfg.Ops.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Demo.Frames)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue capacity")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero capacity", func(c *Config) { c.Engine.QueueCapacity = 0 }, true},
		{"zero replicas", func(c *Config) { c.Engine.Replicas = 0 }, true},
		{"zero frame bytes", func(c *Config) { c.Demo.FrameBytes = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPipelineSpec(t *testing.T) {
	path := writeSpec(t, `
name: demo
queue_capacity: 16
replicas: 3
stages:
  - name: normalize
    kind: passthrough
    position: input
  - name: sum
    kind: checksum
    position: core
  - name: settle
    kind: delay
    delay_ms: 5
    position: post
`)

	spec, err := LoadPipelineSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", spec.Name)
	assert.Equal(t, 16, spec.QueueCapacity)
	assert.Equal(t, 3, spec.Replicas)
	require.Len(t, spec.Stages, 3)
	assert.Equal(t, "checksum", spec.Stages[1].Kind)
	assert.Equal(t, 5, spec.Stages[2].DelayMs)
}

func TestLoadPipelineSpecMissingFile(t *testing.T) {
	_, err := LoadPipelineSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPipelineSpecValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown kind",
			yaml: "stages:\n  - name: x\n    kind: transcode\n    position: core\n",
			want: "unknown kind",
		},
		{
			name: "unknown position",
			yaml: "stages:\n  - name: x\n    kind: checksum\n    position: middle\n",
			want: "unknown position",
		},
		{
			name: "unnamed stage",
			yaml: "stages:\n  - kind: checksum\n    position: core\n",
			want: "no name",
		},
		{
			name: "delay without duration",
			yaml: "stages:\n  - name: x\n    kind: delay\n    position: post\n",
			want: "delay_ms",
		},
		{
			name: "negative replicas",
			yaml: "replicas: -1\n",
			want: "replicas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPipelineSpec(writeSpec(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
