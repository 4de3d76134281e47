package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNATSNotifier_Publishes(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("remediations.high.approval_required")
	require.NoError(t, err)

	notifier, err := NewNATSNotifier(nc, "remediations", nil)
	require.NoError(t, err)

	action := &engine.RemediationAction{
		ID:          "action-1",
		AlertID:     "alert-1",
		Command:     "systemctl restart nginx",
		Description: "Restart nginx",
		RiskLevel:   engine.RiskHigh,
	}
	require.NoError(t, notifier.ApprovalRequested(context.Background(), action))

	raw, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var msg ApprovalMessage
	require.NoError(t, json.Unmarshal(raw.Data, &msg))
	assert.Equal(t, "action-1", msg.ActionID)
	assert.Equal(t, "systemctl restart nginx", msg.Command)
	assert.Equal(t, engine.RiskHigh, msg.RiskLevel)
	assert.False(t, msg.RequestedAt.IsZero())
}

func TestNATSNotifier_SubjectPerRiskLevel(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("ops.*.approval_required")
	require.NoError(t, err)

	notifier, err := NewNATSNotifier(nc, "ops", nil)
	require.NoError(t, err)

	for _, risk := range []engine.RiskLevel{engine.RiskHigh, engine.RiskCritical} {
		require.NoError(t, notifier.ApprovalRequested(context.Background(), &engine.RemediationAction{
			ID:        "action-" + string(risk),
			RiskLevel: risk,
		}))
	}

	first, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ops.high.approval_required", first.Subject)

	second, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ops.critical.approval_required", second.Subject)
}

func TestNewNATSNotifier_RequiresConnection(t *testing.T) {
	_, err := NewNATSNotifier(nil, "remediations", nil)
	assert.Error(t, err)
}
