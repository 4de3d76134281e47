package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/remedyd/internal/engine"

// maxCapturedOutput bounds how much command output is kept per action.
const maxCapturedOutput = 4096

// ErrQueueFull is returned by HandleAlert when the alert queue is at
// capacity. Callers should treat this as backpressure, not data loss.
var ErrQueueFull = errors.New("alert queue is full")

// Config configures the remediation engine.
type Config struct {
	// Mode is the initial oversight mode (default: semi_auto).
	Mode Mode

	// QueueSize bounds the alert queue (default: 256).
	QueueSize int

	// ApprovalTimeout is how long an action may wait for human sign-off
	// before it expires (default: 1h).
	ApprovalTimeout time.Duration

	// SweepInterval is how often the timeout monitor scans the pending
	// approvals table (default: 1m).
	SweepInterval time.Duration

	// DiagnosisTimeout bounds each diagnosis call (default: 30s).
	DiagnosisTimeout time.Duration

	// ExecutionTimeout bounds each execution call (default: 2m).
	ExecutionTimeout time.Duration

	// HistoryLimit bounds the in-memory audit log (default: 10000).
	HistoryLimit int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:             ModeSemiAuto,
		QueueSize:        256,
		ApprovalTimeout:  time.Hour,
		SweepInterval:    time.Minute,
		DiagnosisTimeout: 30 * time.Second,
		ExecutionTimeout: 2 * time.Minute,
		HistoryLimit:     10000,
	}
}

// pendingEntry is one action in the pending-approvals table, together
// with the run context needed to audit its later resolution.
type pendingEntry struct {
	action        *RemediationAction
	remediationID string
	alert         AlertSummary
	diagnosis     DiagnosisSummary
	requestedAt   time.Time
}

// Engine is the remediation controller. It owns the alert queue, the
// mode setting, the pending-approvals table, and the kill switch, and
// drives alerts through diagnosis, action generation, approval, and
// execution.
type Engine struct {
	config    *Config
	diagnoser Diagnoser
	executor  Executor
	creds     CredentialStore
	notifier  Notifier
	scrubber  Scrubber
	logger    *zap.Logger

	tracer           trace.Tracer
	meter            metric.Meter
	alertsCounter    metric.Int64Counter
	actionsCounter   metric.Int64Counter
	approvalsCounter metric.Int64Counter

	queue chan Alert

	// mu guards mode, killSwitch and pending. These are the only pieces
	// of mutable state shared between the consumer loop, the sweep loop,
	// and API callers.
	mu         sync.Mutex
	mode       Mode
	killSwitch bool
	pending    map[string]*pendingEntry

	audit *AuditLog
	stats *aggregator
}

// New creates an engine. The diagnoser, executor and credential store
// are required; notifier and scrubber may be nil.
func New(cfg *Config, diagnoser Diagnoser, executor Executor, creds CredentialStore, notifier Notifier, scrubber Scrubber, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if diagnoser == nil {
		return nil, errors.New("diagnoser is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if creds == nil {
		return nil, errors.New("credential store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSemiAuto
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.ApprovalTimeout <= 0 {
		cfg.ApprovalTimeout = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	e := &Engine{
		config:    cfg,
		diagnoser: diagnoser,
		executor:  executor,
		creds:     creds,
		notifier:  notifier,
		scrubber:  scrubber,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
		queue:     make(chan Alert, cfg.QueueSize),
		mode:      cfg.Mode,
		pending:   make(map[string]*pendingEntry),
		audit:     NewAuditLog(cfg.HistoryLimit),
		stats:     newAggregator(),
	}

	e.initMetrics()

	logger.Info("remediation engine initialized",
		zap.String("mode", string(e.mode)),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("approval_timeout", cfg.ApprovalTimeout),
	)

	return e, nil
}

func (e *Engine) initMetrics() {
	var err error

	e.alertsCounter, err = e.meter.Int64Counter(
		"remedyd.engine.alerts_total",
		metric.WithDescription("Total number of alerts ingested"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		e.logger.Warn("failed to create alerts counter", zap.Error(err))
	}

	e.actionsCounter, err = e.meter.Int64Counter(
		"remedyd.engine.actions_total",
		metric.WithDescription("Total remediation actions by terminal status"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		e.logger.Warn("failed to create actions counter", zap.Error(err))
	}

	e.approvalsCounter, err = e.meter.Int64Counter(
		"remedyd.engine.approvals_total",
		metric.WithDescription("Approval requests by outcome"),
		metric.WithUnit("{approval}"),
	)
	if err != nil {
		e.logger.Warn("failed to create approvals counter", zap.Error(err))
	}
}

// HandleAlert enqueues an alert for processing. It never blocks: when
// the queue is full it returns ErrQueueFull. Safe for concurrent use by
// multiple alert sources.
func (e *Engine) HandleAlert(ctx context.Context, alert Alert) error {
	select {
	case e.queue <- alert:
	default:
		return ErrQueueFull
	}

	e.stats.AlertReceived()
	if e.alertsCounter != nil {
		e.alertsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", alert.Source),
			attribute.String("severity", string(alert.Severity)),
		))
	}

	e.logger.Info("alert received",
		zap.String("alert_id", alert.ID),
		zap.String("source", alert.Source),
		zap.String("severity", string(alert.Severity)),
		zap.String("host", alert.Host),
	)
	return nil
}

// Run consumes the alert queue and runs the approval timeout monitor
// until ctx is cancelled. Alert processing is serialized; the sweep loop
// runs concurrently with it.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		e.consumeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.sweepLoop(ctx)
	}()

	wg.Wait()
	e.logger.Info("remediation engine stopped")
}

func (e *Engine) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-e.queue:
			e.processAlert(ctx, alert)
		}
	}
}

// processAlert drives one alert through the remediation pipeline. Any
// failure is contained here: it is counted and logged, and never
// escapes into the consumer loop.
func (e *Engine) processAlert(ctx context.Context, alert Alert) {
	remediationID := uuid.New().String()
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "engine.process_alert")
	defer span.End()
	span.SetAttributes(
		attribute.String("alert_id", alert.ID),
		attribute.String("remediation_id", remediationID),
		attribute.String("severity", string(alert.Severity)),
	)

	defer func() {
		if r := recover(); r != nil {
			e.stats.ExecutionFailed()
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			e.logger.Error("panic while processing alert",
				zap.String("alert_id", alert.ID),
				zap.Any("panic", r),
			)
		}
	}()

	logger := e.logger.With(
		zap.String("alert_id", alert.ID),
		zap.String("remediation_id", remediationID),
	)
	logger.Info("processing alert")

	dctx, cancel := context.WithTimeout(ctx, e.config.DiagnosisTimeout)
	diagnosis, err := e.diagnoser.Diagnose(dctx, alert)
	cancel()
	if err != nil || diagnosis == nil || diagnosis.RootCause == "" {
		// Diagnosis failure or a low-quality diagnosis skips remediation
		// for this alert; it is not an engine error.
		logger.Warn("could not diagnose alert, skipping remediation", zap.Error(err))
		return
	}
	if diagnosis.ID == "" {
		diagnosis.ID = uuid.New().String()
	}

	logger.Info("diagnosis complete",
		zap.String("root_cause", diagnosis.RootCause),
		zap.Int("confidence", diagnosis.Confidence),
	)

	actions := GenerateActions(alert, diagnosis)
	if len(actions) == 0 {
		logger.Info("no remediation actions generated")
		return
	}

	alertSummary := summarizeAlert(alert)
	diagSummary := summarizeDiagnosis(diagnosis)

	all := make([]*RemediationAction, 0, len(actions))
	for _, action := range actions {
		rollback := e.executeOrApprove(ctx, action, remediationID, alertSummary, diagSummary)
		all = append(all, action)
		if rollback != nil {
			all = append(all, rollback)
		}
	}

	resolution := time.Since(start)
	e.stats.RunCompleted(resolution)
	e.audit.Append(AuditEntry{
		RemediationID:  remediationID,
		Timestamp:      time.Now(),
		Alert:          alertSummary,
		Diagnosis:      diagSummary,
		Actions:        summarizeActions(all),
		ResolutionTime: resolution,
		Mode:           e.Mode(),
	})

	logger.Info("remediation run recorded",
		zap.Int("actions", len(all)),
		zap.Duration("resolution_time", resolution),
	)
}

// executeOrApprove either executes the action immediately or parks it in
// the pending-approvals table, based on the mode policy. It returns the
// rollback action if one was spawned by a failed execution.
func (e *Engine) executeOrApprove(ctx context.Context, action *RemediationAction, remediationID string, alert AlertSummary, diag DiagnosisSummary) *RemediationAction {
	if e.ShouldRequestApproval(action.RiskLevel) {
		action.RequiresApproval = true
		e.parkForApproval(ctx, action, remediationID, alert, diag)
		return nil
	}

	action.RequiresApproval = false
	e.logger.Info("auto-executing action",
		zap.String("action_id", action.ID),
		zap.String("command", action.Command),
		zap.String("risk_level", string(action.RiskLevel)),
	)
	return e.executeAction(ctx, action, alert.Host)
}

// ShouldRequestApproval is the approval policy: a pure function of the
// current mode and the action's risk level.
func (e *Engine) ShouldRequestApproval(risk RiskLevel) bool {
	switch e.Mode() {
	case ModeManual:
		return true
	case ModeFullAuto:
		return false
	default: // semi_auto
		return risk == RiskHigh || risk == RiskCritical
	}
}

// executeAction runs one action, honoring the kill switch and credential
// lookup, and updates status and statistics. It returns the rollback
// action if the execution failed and a rollback command was present.
func (e *Engine) executeAction(ctx context.Context, action *RemediationAction, host string) *RemediationAction {
	if e.KillSwitchEngaged() {
		action.Status = StatusFailed
		action.RejectionReason = "kill switch engaged"
		e.stats.ExecutionFailed()
		e.countAction(ctx, action)
		e.logger.Warn("execution refused: kill switch engaged",
			zap.String("action_id", action.ID),
		)
		return nil
	}

	creds, err := e.creds.Lookup(ctx, host)
	if err != nil {
		action.Status = StatusFailed
		action.RejectionReason = fmt.Sprintf("credential lookup failed: %v", err)
		e.stats.ExecutionFailed()
		e.countAction(ctx, action)
		e.logger.Error("no credentials for action",
			zap.String("action_id", action.ID),
			zap.String("host", host),
			zap.Error(err),
		)
		return nil
	}

	action.Status = StatusExecuting
	result := e.runCommand(ctx, action, creds)
	action.Result = result

	if result.Success {
		action.Status = StatusCompleted
		e.stats.ExecutionSucceeded()
		e.countAction(ctx, action)
		e.logger.Info("action executed successfully",
			zap.String("action_id", action.ID),
			zap.Duration("duration", result.Duration),
		)
		return nil
	}

	action.Status = StatusFailed
	e.stats.ExecutionFailed()
	e.countAction(ctx, action)
	e.logger.Error("action execution failed",
		zap.String("action_id", action.ID),
		zap.String("stderr", result.Stderr),
	)

	if action.RollbackCommand == "" {
		return nil
	}
	return e.attemptRollback(ctx, action, creds)
}

// runCommand invokes the executor with a bounded timeout and scrubs the
// captured output. A transport error is folded into a failed result.
func (e *Engine) runCommand(ctx context.Context, action *RemediationAction, creds *Credentials) *ExecutionResult {
	ectx, cancel := context.WithTimeout(ctx, e.config.ExecutionTimeout)
	defer cancel()

	result, err := e.executor.Execute(ectx, action, creds)
	if err != nil {
		result = &ExecutionResult{Success: false, Stderr: err.Error()}
	}
	if result == nil {
		result = &ExecutionResult{Success: false, Stderr: "executor returned no result"}
	}

	result.Stdout = e.scrubOutput(result.Stdout)
	result.Stderr = e.scrubOutput(result.Stderr)
	return result
}

// attemptRollback synthesizes and immediately executes one compensating
// action. Rollbacks never require approval and never recurse: the
// synthesized action carries no rollback command of its own.
func (e *Engine) attemptRollback(ctx context.Context, failed *RemediationAction, creds *Credentials) *RemediationAction {
	rollback := &RemediationAction{
		ID:          uuid.New().String(),
		AlertID:     failed.AlertID,
		DiagnosisID: failed.DiagnosisID,
		Command:     failed.RollbackCommand,
		Description: "Rollback: " + failed.Description,
		RiskLevel:   failed.RiskLevel,
		Status:      StatusCreated,
		CreatedAt:   time.Now(),
	}

	e.logger.Warn("attempting rollback",
		zap.String("failed_action_id", failed.ID),
		zap.String("rollback_action_id", rollback.ID),
	)

	if e.KillSwitchEngaged() {
		rollback.Status = StatusFailed
		rollback.RejectionReason = "kill switch engaged"
		e.countAction(ctx, rollback)
		return rollback
	}

	rollback.Status = StatusExecuting
	result := e.runCommand(ctx, rollback, creds)
	rollback.Result = result

	if result.Success {
		rollback.Status = StatusCompleted
		e.logger.Info("rollback successful", zap.String("action_id", rollback.ID))
	} else {
		rollback.Status = StatusFailed
		e.logger.Error("rollback failed",
			zap.String("action_id", rollback.ID),
			zap.String("stderr", result.Stderr),
		)
	}
	e.countAction(ctx, rollback)
	return rollback
}

func (e *Engine) scrubOutput(s string) string {
	if len(s) > maxCapturedOutput {
		s = s[:maxCapturedOutput]
	}
	if e.scrubber != nil && s != "" {
		s = e.scrubber.Scrub(s)
	}
	return s
}

func (e *Engine) countAction(ctx context.Context, action *RemediationAction) {
	if e.actionsCounter == nil {
		return
	}
	e.actionsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(action.Status)),
		attribute.String("risk_level", string(action.RiskLevel)),
	))
}

// Mode returns the current oversight mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetMode switches the oversight mode at runtime. Pending approvals are
// unaffected; only actions generated after the switch see the new policy.
func (e *Engine) SetMode(mode Mode) error {
	parsed, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.mode = parsed
	e.mu.Unlock()

	e.logger.Info("mode changed", zap.String("mode", string(parsed)))
	return nil
}

// EnableKillSwitch blocks all subsequent executions until disabled.
// Diagnosis and approval bookkeeping continue.
func (e *Engine) EnableKillSwitch() {
	e.mu.Lock()
	e.killSwitch = true
	e.mu.Unlock()
	e.logger.Error("GLOBAL KILL SWITCH ENABLED: all executions blocked")
}

// DisableKillSwitch re-allows executions.
func (e *Engine) DisableKillSwitch() {
	e.mu.Lock()
	e.killSwitch = false
	e.mu.Unlock()
	e.logger.Info("global kill switch disabled")
}

// KillSwitchEngaged reports whether the kill switch is on.
func (e *Engine) KillSwitchEngaged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.killSwitch
}

// Statistics returns a snapshot of the running counters plus the
// current pending approval count, mode and kill switch state.
func (e *Engine) Statistics() Statistics {
	stats := e.stats.Snapshot()

	e.mu.Lock()
	stats.PendingApprovals = len(e.pending)
	stats.Mode = e.mode
	stats.KillSwitch = e.killSwitch
	e.mu.Unlock()

	return stats
}

// History returns up to limit audit entries, newest first.
func (e *Engine) History(limit int) []AuditEntry {
	return e.audit.History(limit)
}

// AuditByRemediation returns the audit entries for one remediation run.
func (e *Engine) AuditByRemediation(remediationID string) []AuditEntry {
	return e.audit.ByRemediation(remediationID)
}

func summarizeAlert(alert Alert) AlertSummary {
	return AlertSummary{
		ID:       alert.ID,
		Source:   alert.Source,
		Severity: alert.Severity,
		Message:  alert.Message,
		Host:     alert.Host,
	}
}

func summarizeDiagnosis(d *Diagnosis) DiagnosisSummary {
	return DiagnosisSummary{
		RootCause:          d.RootCause,
		Confidence:         d.Confidence,
		AffectedComponents: d.AffectedComponents,
	}
}

func summarizeActions(actions []*RemediationAction) []AuditAction {
	out := make([]AuditAction, 0, len(actions))
	for _, a := range actions {
		entry := AuditAction{
			ID:         a.ID,
			Command:    a.Command,
			Status:     a.Status,
			RiskLevel:  a.RiskLevel,
			ApprovedBy: a.ApprovedBy,
		}
		if a.Result != nil {
			entry.Output = a.Result.Stdout
		}
		out = append(out, entry)
	}
	return out
}
