package engine

import (
	"fmt"
	"time"
)

// Severity classifies how serious an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel classifies how dangerous a remediation action is. It drives
// the approval policy, independent of the alert's severity.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ParseRiskLevel maps a declared risk string to a RiskLevel, defaulting
// to medium for unknown or empty values.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(s)
	case "none":
		// Read-only investigation commands declare "none"; treat as low.
		return RiskLow
	default:
		return RiskMedium
	}
}

// Mode controls how much human oversight remediation requires.
type Mode string

const (
	// ModeManual requires approval for every action.
	ModeManual Mode = "manual"
	// ModeSemiAuto requires approval for high and critical risk actions.
	ModeSemiAuto Mode = "semi_auto"
	// ModeFullAuto executes every action without approval.
	ModeFullAuto Mode = "full_auto"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeManual, ModeSemiAuto, ModeFullAuto:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode: %q", s)
	}
}

// ActionStatus is the lifecycle state of a remediation action.
//
// Transitions: created -> (pending_approval -> approved|rejected|expired)
// -> executing -> completed|failed. Approval resolution and timeout expiry
// are mutually exclusive; whichever removes the action from the pending
// table first wins.
type ActionStatus string

const (
	StatusCreated         ActionStatus = "created"
	StatusPendingApproval ActionStatus = "pending_approval"
	StatusApproved        ActionStatus = "approved"
	StatusRejected        ActionStatus = "rejected"
	StatusExpired         ActionStatus = "expired"
	StatusExecuting       ActionStatus = "executing"
	StatusCompleted       ActionStatus = "completed"
	StatusFailed          ActionStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s ActionStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Alert is an event from monitoring infrastructure indicating a possible
// problem. Alerts are created outside the engine and are immutable.
type Alert struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	Host       string            `json:"host"`
	DetectedAt time.Time         `json:"detected_at"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// Recommendation is one candidate fix proposed by a diagnosis provider.
type Recommendation struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Risk        string `json:"risk,omitempty"`
	Rollback    string `json:"rollback,omitempty"`
	Impact      string `json:"impact,omitempty"`
}

// Diagnosis is a root-cause explanation plus candidate recommendations
// for an alert. Produced once per alert; immutable.
type Diagnosis struct {
	ID                 string           `json:"id"`
	AlertID            string           `json:"alert_id"`
	RootCause          string           `json:"root_cause"`
	Confidence         int              `json:"confidence"`
	AffectedComponents []string         `json:"affected_components,omitempty"`
	Recommendations    []Recommendation `json:"recommendations,omitempty"`
}

// RemediationAction is one concrete, executable step toward resolving an
// alert. Owned exclusively by the engine for its lifetime.
type RemediationAction struct {
	ID               string       `json:"id"`
	AlertID          string       `json:"alert_id"`
	DiagnosisID      string       `json:"diagnosis_id"`
	Command          string       `json:"command"`
	Description      string       `json:"description"`
	RiskLevel        RiskLevel    `json:"risk_level"`
	RequiresApproval bool         `json:"requires_approval"`
	RollbackCommand  string       `json:"rollback_command,omitempty"`
	Status           ActionStatus `json:"status"`
	ApprovedBy       string       `json:"approved_by,omitempty"`
	RejectionReason  string       `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`

	// Result holds the scrubbed execution outcome once the action has run.
	Result *ExecutionResult `json:"result,omitempty"`
}

// ExecutionResult is the outcome of running an action's command.
type ExecutionResult struct {
	Success  bool          `json:"success"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Credentials identify how to reach an action's target host. Lookup is
// delegated to an external store; the engine never inspects the secret.
type Credentials struct {
	Host     string
	Username string
	Password string
	Port     int
}

// PendingApproval is the queryable view of one action awaiting sign-off.
type PendingApproval struct {
	ActionID    string    `json:"action_id"`
	Description string    `json:"description"`
	Command     string    `json:"command"`
	RiskLevel   RiskLevel `json:"risk_level"`
	RequestedAt time.Time `json:"requested_at"`
}

// AlertSummary is the audit-log view of an alert.
type AlertSummary struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Host     string   `json:"host"`
}

// DiagnosisSummary is the audit-log view of a diagnosis.
type DiagnosisSummary struct {
	RootCause          string   `json:"root_cause"`
	Confidence         int      `json:"confidence"`
	AffectedComponents []string `json:"affected_components,omitempty"`
}

// AuditAction is the audit-log view of one action's outcome. Output is
// scrubbed of secrets and truncated before it reaches the log.
type AuditAction struct {
	ID         string       `json:"id"`
	Command    string       `json:"command"`
	Status     ActionStatus `json:"status"`
	RiskLevel  RiskLevel    `json:"risk_level"`
	ApprovedBy string       `json:"approved_by,omitempty"`
	Output     string       `json:"output,omitempty"`
}

// AuditEntry is one immutable record of a remediation run or of a later
// approval resolution belonging to that run. Entries are write-once.
type AuditEntry struct {
	RemediationID  string           `json:"remediation_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Alert          AlertSummary     `json:"alert"`
	Diagnosis      DiagnosisSummary `json:"diagnosis"`
	Actions        []AuditAction    `json:"actions"`
	ResolutionTime time.Duration    `json:"resolution_time"`
	Mode           Mode             `json:"mode"`
}

// Statistics are the engine's running counters.
type Statistics struct {
	TotalAlerts        int64   `json:"total_alerts"`
	AutoRemediated     int64   `json:"auto_remediated"`
	ManualApprovals    int64   `json:"manual_approvals"`
	FailedRemediations int64   `json:"failed_remediations"`
	AvgResolutionTime  float64 `json:"avg_resolution_time_seconds"`
	PendingApprovals   int     `json:"pending_approvals"`
	Mode               Mode    `json:"mode"`
	KillSwitch         bool    `json:"kill_switch"`
}
