package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "semi_auto", cfg.Engine.Mode)
	assert.Equal(t, 256, cfg.Engine.QueueSize)
	assert.Equal(t, time.Hour, cfg.Engine.ApprovalTimeout.Duration())
	assert.Equal(t, time.Minute, cfg.Engine.SweepInterval.Duration())
	assert.Equal(t, 9482, cfg.Server.Port)
	assert.Equal(t, "rules", cfg.Diagnosis.Provider)
	assert.False(t, cfg.NATS.Enabled)
	assert.True(t, cfg.Execution.SafetyChecks)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Engine.Mode = "yolo" },
			wantErr: "engine.mode",
		},
		{
			name:    "zero queue",
			mutate:  func(c *Config) { c.Engine.QueueSize = 0 },
			wantErr: "engine.queue_size",
		},
		{
			name:    "zero approval timeout",
			mutate:  func(c *Config) { c.Engine.ApprovalTimeout = 0 },
			wantErr: "engine.approval_timeout",
		},
		{
			name:    "llm without key",
			mutate:  func(c *Config) { c.Diagnosis.Provider = "llm" },
			wantErr: "diagnosis.api_key",
		},
		{
			name: "nats enabled without url",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.URL = ""
			},
			wantErr: "nats.url",
		},
		{
			name: "telemetry sample rate out of range",
			mutate: func(c *Config) {
				c.Telemetry.SampleRate = 1.5
			},
			wantErr: "telemetry.sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Engine.Mode, cfg.Engine.Mode)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
engine:
  mode: manual
  approval_timeout: 30m
server:
  port: 8088
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "manual", cfg.Engine.Mode)
	assert.Equal(t, 30*time.Minute, cfg.Engine.ApprovalTimeout.Duration())
	assert.Equal(t, 8088, cfg.Server.Port)
	// Untouched sections keep defaults.
	assert.Equal(t, "rules", cfg.Diagnosis.Provider)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  mode: manual\n"), 0o600))

	t.Setenv("ENGINE_MODE", "full_auto")
	t.Setenv("SERVER_PORT", "7777")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "full_auto", cfg.Engine.Mode)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestEnvTransformer(t *testing.T) {
	assert.Equal(t, "server.port", envTransformer("SERVER_PORT"))
	assert.Equal(t, "engine.approval_timeout", envTransformer("ENGINE_APPROVAL_TIMEOUT"))
	assert.Equal(t, "", envTransformer("PATH"))
	assert.Equal(t, "", envTransformer("HOME"))
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("bogus")))
}
