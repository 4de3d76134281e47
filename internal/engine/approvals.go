package engine

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// parkForApproval moves an action into the pending-approvals table and
// fires the approval-required notification. Notification failure is
// logged and does not affect the workflow.
func (e *Engine) parkForApproval(ctx context.Context, action *RemediationAction, remediationID string, alert AlertSummary, diag DiagnosisSummary) {
	action.Status = StatusPendingApproval
	now := time.Now()

	// The pending table owns its own copy of the action: resolution
	// (approve, reject, expiry) mutates only that copy, while the
	// caller's struct stays a frozen park-time snapshot for the run
	// audit entry. Without the copy, an approval racing the run append
	// would mutate a struct the processing goroutine is still reading.
	parked := *action

	e.mu.Lock()
	e.pending[parked.ID] = &pendingEntry{
		action:        &parked,
		remediationID: remediationID,
		alert:         alert,
		diagnosis:     diag,
		requestedAt:   now,
	}
	e.mu.Unlock()

	e.stats.ApprovalRequested()
	if e.approvalsCounter != nil {
		e.approvalsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "requested"),
			attribute.String("risk_level", string(action.RiskLevel)),
		))
	}

	e.logger.Info("approval required",
		zap.String("action_id", action.ID),
		zap.String("command", action.Command),
		zap.String("risk_level", string(action.RiskLevel)),
	)

	if e.notifier != nil {
		if err := e.notifier.ApprovalRequested(ctx, action); err != nil {
			e.logger.Warn("approval notification failed",
				zap.String("action_id", action.ID),
				zap.Error(err),
			)
		}
	}
}

// takePending atomically removes one entry from the pending table. The
// removal is the commit point for approval resolution: whichever of
// approve, reject or expiry removes the entry first owns the action.
func (e *Engine) takePending(actionID string) (*pendingEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.pending[actionID]
	if ok {
		delete(e.pending, actionID)
	}
	return entry, ok
}

// Approve resolves a pending action and executes it. It returns false if
// no action with that ID is pending (unknown ID, already resolved, or
// already expired).
func (e *Engine) Approve(ctx context.Context, actionID, approvedBy string) bool {
	entry, ok := e.takePending(actionID)
	if !ok {
		return false
	}

	action := entry.action
	action.Status = StatusApproved
	action.ApprovedBy = approvedBy

	if e.approvalsCounter != nil {
		e.approvalsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "approved"),
			attribute.String("risk_level", string(action.RiskLevel)),
		))
	}
	e.logger.Info("action approved",
		zap.String("action_id", actionID),
		zap.String("approved_by", approvedBy),
	)

	rollback := e.executeAction(ctx, action, entry.alert.Host)

	all := []*RemediationAction{action}
	if rollback != nil {
		all = append(all, rollback)
	}
	e.appendResolutionEntry(entry, all)
	return true
}

// Reject resolves a pending action without executing it. It returns
// false if no action with that ID is pending.
func (e *Engine) Reject(ctx context.Context, actionID, rejectedBy, reason string) bool {
	entry, ok := e.takePending(actionID)
	if !ok {
		return false
	}

	action := entry.action
	action.Status = StatusRejected
	action.ApprovedBy = rejectedBy
	action.RejectionReason = reason

	if e.approvalsCounter != nil {
		e.approvalsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "rejected"),
			attribute.String("risk_level", string(action.RiskLevel)),
		))
	}
	e.logger.Info("action rejected",
		zap.String("action_id", actionID),
		zap.String("rejected_by", rejectedBy),
		zap.String("reason", reason),
	)

	e.appendResolutionEntry(entry, []*RemediationAction{action})
	return true
}

// ListPendingApprovals returns the actions awaiting sign-off, oldest
// request first.
func (e *Engine) ListPendingApprovals() []PendingApproval {
	e.mu.Lock()
	out := make([]PendingApproval, 0, len(e.pending))
	for _, entry := range e.pending {
		out = append(out, PendingApproval{
			ActionID:    entry.action.ID,
			Description: entry.action.Description,
			Command:     entry.action.Command,
			RiskLevel:   entry.action.RiskLevel,
			RequestedAt: entry.requestedAt,
		})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out
}

// sweepLoop periodically expires pending approvals older than the
// approval timeout.
func (e *Engine) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepExpired(ctx)
		}
	}
}

// sweepExpired collects and removes every timed-out entry in one
// critical section, so an in-flight Approve or Reject can never race a
// sweep for the same action.
func (e *Engine) sweepExpired(ctx context.Context) {
	cutoff := time.Now().Add(-e.config.ApprovalTimeout)

	e.mu.Lock()
	var expired []*pendingEntry
	for id, entry := range e.pending {
		if entry.requestedAt.Before(cutoff) {
			expired = append(expired, entry)
			delete(e.pending, id)
		}
	}
	e.mu.Unlock()

	for _, entry := range expired {
		action := entry.action
		action.Status = StatusExpired
		action.RejectionReason = "approval timeout"

		if e.approvalsCounter != nil {
			e.approvalsCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("outcome", "expired"),
				attribute.String("risk_level", string(action.RiskLevel)),
			))
		}
		e.logger.Warn("approval expired",
			zap.String("action_id", action.ID),
			zap.Duration("timeout", e.config.ApprovalTimeout),
		)

		e.appendResolutionEntry(entry, []*RemediationAction{action})
	}
}

// appendResolutionEntry records the late resolution of an approval as a
// follow-up audit entry under the original remediation ID.
func (e *Engine) appendResolutionEntry(entry *pendingEntry, actions []*RemediationAction) {
	e.audit.Append(AuditEntry{
		RemediationID: entry.remediationID,
		Timestamp:     time.Now(),
		Alert:         entry.alert,
		Diagnosis:     entry.diagnosis,
		Actions:       summarizeActions(actions),
		Mode:          e.Mode(),
	})
}
