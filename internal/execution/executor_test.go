package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

func action(command string) *engine.RemediationAction {
	return &engine.RemediationAction{
		ID:      "action-1",
		Command: command,
	}
}

func TestLocalExecutor_Success(t *testing.T) {
	x := NewLocalExecutor(nil, nil)

	result, err := x.Execute(context.Background(), action("echo hello"), nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestLocalExecutor_NonZeroExit(t *testing.T) {
	x := NewLocalExecutor(nil, nil)

	result, err := x.Execute(context.Background(), action("echo oops >&2; exit 3"), nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestLocalExecutor_ContextCancellation(t *testing.T) {
	x := NewLocalExecutor(nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := x.Execute(ctx, action("sleep 10"), nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestLocalExecutor_BlocksDangerousCommands(t *testing.T) {
	x := NewLocalExecutor(nil, nil)

	dangerous := []string{
		"rm -rf /",
		"dd if=/dev/zero of=/dev/sda",
		"mkfs.ext4 /dev/sdb1",
		"fdisk /dev/sda",
		":(){ :|:& };:",
		"chmod 777 /",
	}
	for _, cmd := range dangerous {
		_, err := x.Execute(context.Background(), action(cmd), nil)
		assert.ErrorIs(t, err, ErrUnsafeCommand, "command %q should be blocked", cmd)
	}
}

func TestLocalExecutor_SafetyChecksDisabled(t *testing.T) {
	// Benign command that trips the pattern matcher only.
	x := NewLocalExecutor(&Config{Shell: "/bin/sh", SafetyChecks: false}, nil)

	result, err := x.Execute(context.Background(), action("echo 'rm -rf /'"), nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestValidate_AllowsNormalCommands(t *testing.T) {
	allowed := []string{
		"systemctl restart nginx",
		"rm -rf /tmp/cache",
		"ps aux --sort=-%cpu | head -20",
		"journalctl --vacuum-time=7d",
	}
	for _, cmd := range allowed {
		assert.NoError(t, Validate(cmd), "command %q should pass", cmd)
	}
}

func TestStaticCredentialStore(t *testing.T) {
	store, err := NewStaticCredentialStore(&config.CredentialsConfig{
		Username: "admin",
		Password: config.Secret("hunter2"),
	})
	require.NoError(t, err)

	creds, err := store.Lookup(context.Background(), "web-01")
	require.NoError(t, err)
	assert.Equal(t, "web-01", creds.Host)
	assert.Equal(t, "admin", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, 22, creds.Port)
}

func TestStaticCredentialStore_RequiresUsername(t *testing.T) {
	_, err := NewStaticCredentialStore(&config.CredentialsConfig{})
	assert.Error(t, err)
}
