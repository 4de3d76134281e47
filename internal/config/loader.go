package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ENGINE_MODE, SERVER_PORT, NATS_URL, ...)
//  2. YAML config file (optional; missing file is not an error)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by lowercasing and splitting
// on the first underscore:
//
//	SERVER_PORT             -> server.port
//	ENGINE_APPROVAL_TIMEOUT -> engine.approval_timeout
//	TELEMETRY_SERVICE_NAME  -> telemetry.service_name
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := NewDefaultConfig()

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil {
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// knownSections are the top-level config sections recognized in
// environment variable names. Anything else is ignored so unrelated
// variables (PATH, HOME, ...) don't pollute the config tree.
var knownSections = map[string]bool{
	"server":      true,
	"engine":      true,
	"nats":        true,
	"diagnosis":   true,
	"execution":   true,
	"credentials": true,
	"logging":     true,
	"telemetry":   true,
}

// envTransformer maps SECTION_KEY_NAME to section.key_name.
func envTransformer(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || !knownSections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}
