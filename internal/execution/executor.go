// Package execution runs remediation commands against target hosts and
// enforces the command safety policy.
package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// ErrUnsafeCommand is returned when a command matches a known-destructive
// pattern and the safety policy refuses to run it.
var ErrUnsafeCommand = errors.New("command blocked by safety policy")

// dangerousPatterns match commands that are never safe to automate,
// regardless of risk classification.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf\s+/(\s|$)`),
	regexp.MustCompile(`dd\s+if=.*of=/dev/[sh]d`),
	regexp.MustCompile(`mkfs\.`),
	regexp.MustCompile(`\bfdisk\b`),
	regexp.MustCompile(`parted.*\brm\b`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\};:`),
	regexp.MustCompile(`chmod\s+777\s+/(\s|$)`),
	regexp.MustCompile(`chown\s+.*\s+/(\s|$)`),
}

// Validate reports whether the command passes the safety policy.
func Validate(command string) error {
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(command) {
			return fmt.Errorf("%w: matches %q", ErrUnsafeCommand, pattern.String())
		}
	}
	return nil
}

// Config configures the local executor.
type Config struct {
	// Shell is the interpreter commands run under (default: /bin/sh).
	Shell string

	// SafetyChecks toggles the dangerous-command policy (default: on).
	// Disabling it is only meant for isolated test environments.
	SafetyChecks bool
}

// DefaultConfig returns the executor defaults.
func DefaultConfig() *Config {
	return &Config{
		Shell:        "/bin/sh",
		SafetyChecks: true,
	}
}

// LocalExecutor runs commands on the local host through a shell. Remote
// targets are out of scope here; the credential parameter is accepted
// for interface compatibility and ignored.
type LocalExecutor struct {
	config *Config
	logger *zap.Logger
}

// NewLocalExecutor creates a local shell executor.
func NewLocalExecutor(cfg *Config, logger *zap.Logger) *LocalExecutor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalExecutor{config: cfg, logger: logger}
}

// Execute runs the action's command and captures its output. A non-zero
// exit produces a Success=false result, not an error; errors are
// reserved for commands that could not be attempted at all.
func (x *LocalExecutor) Execute(ctx context.Context, action *engine.RemediationAction, _ *engine.Credentials) (*engine.ExecutionResult, error) {
	if x.config.SafetyChecks {
		if err := Validate(action.Command); err != nil {
			x.logger.Warn("refusing to execute command",
				zap.String("action_id", action.ID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	x.logger.Info("executing command",
		zap.String("action_id", action.ID),
		zap.String("command", action.Command),
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, x.config.Shell, "-c", action.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &engine.ExecutionResult{
		Success:  err == nil,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		// Command ran and failed; its stderr tells the story.
		if result.Stderr == "" {
			result.Stderr = exitErr.Error()
		}
	default:
		return nil, fmt.Errorf("starting command: %w", err)
	}

	return result, nil
}
