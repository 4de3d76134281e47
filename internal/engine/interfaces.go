package engine

import "context"

// Diagnoser turns an alert into a diagnosis. Implementations may be slow
// (network, model inference); the engine bounds each call with a timeout.
// A nil error with an empty RootCause means the provider could not
// diagnose the alert; the engine skips remediation in that case.
type Diagnoser interface {
	Diagnose(ctx context.Context, alert Alert) (*Diagnosis, error)
}

// Executor runs an action's command against a target. Implementations
// decide the transport (local shell, SSH, ...). A returned error means
// execution could not be attempted; a result with Success=false means it
// ran and failed. Both are treated as action failure.
type Executor interface {
	Execute(ctx context.Context, action *RemediationAction, creds *Credentials) (*ExecutionResult, error)
}

// CredentialStore resolves credentials for a target host. Missing
// credentials fail the specific action, never the engine.
type CredentialStore interface {
	Lookup(ctx context.Context, host string) (*Credentials, error)
}

// Notifier delivers the fire-and-forget "approval required" side effect.
// Failures are logged and never block the workflow.
type Notifier interface {
	ApprovalRequested(ctx context.Context, action *RemediationAction) error
}

// Scrubber redacts secrets from captured command output before it is
// stored in the audit log.
type Scrubber interface {
	Scrub(content string) string
}
