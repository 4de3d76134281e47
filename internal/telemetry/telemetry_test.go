package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), &config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.False(t, tel.IsDegraded())
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestNew_EnabledRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), &config.TelemetryConfig{Enabled: true})
	assert.Error(t, err)
}

func TestNew_Enabled(t *testing.T) {
	// Exporter construction is lazy; no collector needs to be listening.
	cfg := &config.TelemetryConfig{
		Enabled:         true,
		Endpoint:        "localhost:4317",
		ServiceName:     "remedyd-test",
		ServiceVersion:  "0.0.1",
		Insecure:        true,
		SampleRate:      0.5,
		MetricsInterval: config.Duration(time.Second),
		ShutdownTimeout: config.Duration(time.Second),
	}

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, tel.IsEnabled())
	assert.NotNil(t, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Shutdown may fail to reach a collector; it must still return.
	_ = tel.Shutdown(ctx)
	assert.False(t, tel.IsEnabled())
}

func TestShutdown_NilReceiver(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.False(t, tel.IsEnabled())
	assert.Nil(t, tel.LoggerProvider())
}
