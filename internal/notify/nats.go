// Package notify delivers approval-required notifications to external
// channels over NATS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// ApprovalMessage is the wire payload published for a pending approval.
type ApprovalMessage struct {
	ActionID    string           `json:"action_id"`
	AlertID     string           `json:"alert_id"`
	Command     string           `json:"command"`
	Description string           `json:"description"`
	RiskLevel   engine.RiskLevel `json:"risk_level"`
	RequestedAt time.Time        `json:"requested_at"`
}

// NATSNotifier publishes approval requests to
// <prefix>.<risk_level>.approval_required, so subscribers can filter by
// risk with subject wildcards.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSNotifier wraps an established NATS connection. The connection
// is owned by the caller.
func NewNATSNotifier(nc *nats.Conn, subjectPrefix string, logger *zap.Logger) (*NATSNotifier, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}
	if subjectPrefix == "" {
		subjectPrefix = "remediations"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{nc: nc, prefix: subjectPrefix, logger: logger}, nil
}

// ApprovalRequested publishes one approval request.
func (n *NATSNotifier) ApprovalRequested(_ context.Context, action *engine.RemediationAction) error {
	msg := ApprovalMessage{
		ActionID:    action.ID,
		AlertID:     action.AlertID,
		Command:     action.Command,
		Description: action.Description,
		RiskLevel:   action.RiskLevel,
		RequestedAt: time.Now(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding approval message: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.approval_required", n.prefix, action.RiskLevel)
	if err := n.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	n.logger.Debug("approval notification published",
		zap.String("subject", subject),
		zap.String("action_id", action.ID),
	)
	return nil
}
