// Package config provides configuration loading for remedyd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the remedyd daemon.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Engine      EngineConfig      `koanf:"engine"`
	NATS        NATSConfig        `koanf:"nats"`
	Diagnosis   DiagnosisConfig   `koanf:"diagnosis"`
	Execution   ExecutionConfig   `koanf:"execution"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// AlertRateLimit caps alert ingestion in alerts/second; AlertRateBurst
	// is the burst allowance above the sustained rate.
	AlertRateLimit float64 `koanf:"alert_rate_limit"`
	AlertRateBurst int     `koanf:"alert_rate_burst"`

	// WebhookSecret enables HMAC-SHA256 signature verification on the
	// Alertmanager webhook when set.
	WebhookSecret Secret `koanf:"webhook_secret"`
}

// EngineConfig configures the remediation engine.
type EngineConfig struct {
	// Mode is one of manual, semi_auto, full_auto.
	Mode string `koanf:"mode"`

	QueueSize        int      `koanf:"queue_size"`
	ApprovalTimeout  Duration `koanf:"approval_timeout"`
	SweepInterval    Duration `koanf:"sweep_interval"`
	DiagnosisTimeout Duration `koanf:"diagnosis_timeout"`
	ExecutionTimeout Duration `koanf:"execution_timeout"`

	// HistoryLimit bounds the in-memory audit log.
	HistoryLimit int `koanf:"history_limit"`
}

// NATSConfig configures the approval notification publisher.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// DiagnosisConfig selects and configures the diagnosis provider.
type DiagnosisConfig struct {
	// Provider is "rules" (offline knowledge base) or "llm".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   Secret `koanf:"api_key"`
}

// ExecutionConfig configures local command execution.
type ExecutionConfig struct {
	Shell        string `koanf:"shell"`
	SafetyChecks bool   `koanf:"safety_checks"`
}

// CredentialsConfig configures the static credential store.
type CredentialsConfig struct {
	Username string `koanf:"username"`
	Password Secret `koanf:"password"`
	Port     int    `koanf:"port"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	Insecure        bool     `koanf:"insecure"`
	SampleRate      float64  `koanf:"sample_rate"`
	MetricsInterval Duration `koanf:"metrics_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// NewDefaultConfig returns production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9482,
			ShutdownTimeout: Duration(10 * time.Second),
			AlertRateLimit:  50,
			AlertRateBurst:  100,
		},
		Engine: EngineConfig{
			Mode:             "semi_auto",
			QueueSize:        256,
			ApprovalTimeout:  Duration(time.Hour),
			SweepInterval:    Duration(time.Minute),
			DiagnosisTimeout: Duration(30 * time.Second),
			ExecutionTimeout: Duration(2 * time.Minute),
			HistoryLimit:     10000,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			SubjectPrefix: "remediations",
		},
		Diagnosis: DiagnosisConfig{
			Provider: "rules",
			Model:    "gpt-4o",
		},
		Execution: ExecutionConfig{
			Shell:        "/bin/sh",
			SafetyChecks: true,
		},
		Credentials: CredentialsConfig{
			Username: "remedyd",
			Port:     22,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			Endpoint:        "localhost:4317",
			ServiceName:     "remedyd",
			ServiceVersion:  "0.1.0",
			Insecure:        true,
			SampleRate:      1.0,
			MetricsInterval: Duration(15 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.AlertRateLimit <= 0 {
		return fmt.Errorf("server.alert_rate_limit must be positive, got %v", c.Server.AlertRateLimit)
	}

	switch c.Engine.Mode {
	case "manual", "semi_auto", "full_auto":
	default:
		return fmt.Errorf("engine.mode must be manual, semi_auto or full_auto, got %q", c.Engine.Mode)
	}
	if c.Engine.QueueSize <= 0 {
		return fmt.Errorf("engine.queue_size must be positive, got %d", c.Engine.QueueSize)
	}
	if c.Engine.ApprovalTimeout.Duration() <= 0 {
		return fmt.Errorf("engine.approval_timeout must be positive")
	}
	if c.Engine.SweepInterval.Duration() <= 0 {
		return fmt.Errorf("engine.sweep_interval must be positive")
	}

	switch c.Diagnosis.Provider {
	case "rules", "llm":
	default:
		return fmt.Errorf("diagnosis.provider must be rules or llm, got %q", c.Diagnosis.Provider)
	}
	if c.Diagnosis.Provider == "llm" && !c.Diagnosis.APIKey.IsSet() {
		return fmt.Errorf("diagnosis.api_key is required when diagnosis.provider is llm")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be in [0,1], got %v", c.Telemetry.SampleRate)
	}

	return nil
}
