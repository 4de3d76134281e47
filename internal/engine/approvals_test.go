package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// parkTestAction feeds one high-risk alert through the pipeline so that
// exactly one action lands in the pending table, and returns its ID.
func parkTestAction(t *testing.T, e *Engine) string {
	t.Helper()

	e.processAlert(context.Background(), testAlert())

	pending := e.ListPendingApprovals()
	require.Len(t, pending, 1)
	return pending[0].ActionID
}

func highRiskDiagnoser() *stubDiagnoser {
	return &stubDiagnoser{diagnosis: testDiagnosis(
		Recommendation{Command: "reboot", Description: "Reboot host", Risk: "high"},
	)}
}

func TestApprove_ExecutesAction(t *testing.T) {
	x := &stubExecutor{}
	e := newTestEngine(t, nil, highRiskDiagnoser(), x)
	id := parkTestAction(t, e)

	ok := e.Approve(context.Background(), id, "oncall@example.com")
	assert.True(t, ok)
	assert.Equal(t, []string{"reboot"}, x.commands())
	assert.Empty(t, e.ListPendingApprovals())

	stats := e.Statistics()
	assert.Equal(t, int64(1), stats.AutoRemediated)
	assert.Equal(t, int64(1), stats.ManualApprovals)

	// The run entry plus the resolution entry share one remediation ID.
	history := e.History(10)
	require.Len(t, history, 2)
	assert.Equal(t, history[0].RemediationID, history[1].RemediationID)
	assert.Equal(t, StatusCompleted, history[0].Actions[0].Status)
	assert.Equal(t, "oncall@example.com", history[0].Actions[0].ApprovedBy)
}

func TestApprove_UnknownID(t *testing.T) {
	e := newTestEngine(t, nil, highRiskDiagnoser(), &stubExecutor{})
	assert.False(t, e.Approve(context.Background(), "nope", "someone"))
}

func TestApprove_ExactlyOnce(t *testing.T) {
	x := &stubExecutor{}
	e := newTestEngine(t, nil, highRiskDiagnoser(), x)
	id := parkTestAction(t, e)

	assert.True(t, e.Approve(context.Background(), id, "first"))
	assert.False(t, e.Approve(context.Background(), id, "second"))
	assert.False(t, e.Reject(context.Background(), id, "third", "changed my mind"))

	assert.Len(t, x.commands(), 1)
}

// gatedExecutor blocks on one command until released, so a test can
// interleave an approval with a processing run that is still in flight.
type gatedExecutor struct {
	stubExecutor
	gate    string
	started chan struct{}
	release chan struct{}
}

func (x *gatedExecutor) Execute(ctx context.Context, action *RemediationAction, creds *Credentials) (*ExecutionResult, error) {
	if action.Command == x.gate {
		close(x.started)
		<-x.release
	}
	return x.stubExecutor.Execute(ctx, action, creds)
}

func TestApprove_DuringRun_AuditsParkTimeSnapshot(t *testing.T) {
	x := &gatedExecutor{
		gate:    "top -bn1",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := &stubDiagnoser{diagnosis: testDiagnosis(
		Recommendation{Command: "reboot", Description: "Reboot host", Risk: "critical"},
		Recommendation{Command: "top -bn1", Description: "Inspect processes", Risk: "low"},
	)}
	e := newTestEngine(t, nil, d, x)

	done := make(chan struct{})
	go func() {
		e.processAlert(context.Background(), testAlert())
		close(done)
	}()

	// The critical action is parked before the low-risk sibling starts
	// executing; approve it while that execution is still blocked.
	<-x.started
	pending := e.ListPendingApprovals()
	require.Len(t, pending, 1)
	require.True(t, e.Approve(context.Background(), pending[0].ActionID, "oncall@example.com"))

	close(x.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processing did not finish")
	}

	assert.ElementsMatch(t, []string{"reboot", "top -bn1"}, x.commands())

	// Newest first: the run entry lands after the mid-run resolution.
	history := e.History(10)
	require.Len(t, history, 2)
	run, resolution := history[0], history[1]
	assert.Equal(t, run.RemediationID, resolution.RemediationID)

	// The run entry records the park-time state of the approved action,
	// untouched by its concurrent resolution.
	require.Len(t, run.Actions, 2)
	assert.Equal(t, StatusPendingApproval, run.Actions[0].Status)
	assert.Empty(t, run.Actions[0].ApprovedBy)
	assert.Equal(t, StatusCompleted, run.Actions[1].Status)

	require.Len(t, resolution.Actions, 1)
	assert.Equal(t, StatusCompleted, resolution.Actions[0].Status)
	assert.Equal(t, "oncall@example.com", resolution.Actions[0].ApprovedBy)
}

func TestReject_NeverExecutes(t *testing.T) {
	x := &stubExecutor{}
	e := newTestEngine(t, nil, highRiskDiagnoser(), x)
	id := parkTestAction(t, e)

	ok := e.Reject(context.Background(), id, "oncall@example.com", "too risky")
	assert.True(t, ok)
	assert.Empty(t, x.commands())
	assert.Empty(t, e.ListPendingApprovals())

	// Rejection is not a failure.
	stats := e.Statistics()
	assert.Equal(t, int64(0), stats.FailedRemediations)
	assert.Equal(t, int64(0), stats.AutoRemediated)

	history := e.History(10)
	require.Len(t, history, 2)
	assert.Equal(t, StatusRejected, history[0].Actions[0].Status)
}

func TestApprove_KillSwitchBlocksExecution(t *testing.T) {
	x := &stubExecutor{}
	e := newTestEngine(t, nil, highRiskDiagnoser(), x)
	id := parkTestAction(t, e)

	e.EnableKillSwitch()

	assert.True(t, e.Approve(context.Background(), id, "oncall@example.com"))
	assert.Empty(t, x.commands())
	assert.Equal(t, int64(1), e.Statistics().FailedRemediations)
}

func TestSweepExpired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApprovalTimeout = 50 * time.Millisecond
	x := &stubExecutor{}
	e := newTestEngine(t, cfg, highRiskDiagnoser(), x)
	id := parkTestAction(t, e)

	// Not yet expired.
	e.sweepExpired(context.Background())
	assert.Len(t, e.ListPendingApprovals(), 1)

	time.Sleep(60 * time.Millisecond)
	e.sweepExpired(context.Background())

	assert.Empty(t, e.ListPendingApprovals())
	assert.Empty(t, x.commands())
	assert.False(t, e.Approve(context.Background(), id, "too late"))

	history := e.History(10)
	require.Len(t, history, 2)
	assert.Equal(t, StatusExpired, history[0].Actions[0].Status)

	// Expiry mutates only the pending table's copy; the run entry keeps
	// its park-time snapshot.
	assert.Equal(t, StatusPendingApproval, history[1].Actions[0].Status)
}

func TestListPendingApprovals_SortedByAge(t *testing.T) {
	e := newTestEngine(t, nil, highRiskDiagnoser(), &stubExecutor{})

	now := time.Now()
	for i, id := range []string{"c", "a", "b"} {
		e.mu.Lock()
		e.pending[id] = &pendingEntry{
			action:      &RemediationAction{ID: id, Command: "reboot", RiskLevel: RiskHigh},
			requestedAt: now.Add(time.Duration(i) * time.Second),
		}
		e.mu.Unlock()
	}

	pending := e.ListPendingApprovals()
	require.Len(t, pending, 3)
	assert.Equal(t, "c", pending[0].ActionID)
	assert.Equal(t, "a", pending[1].ActionID)
	assert.Equal(t, "b", pending[2].ActionID)
}

func TestParkForApproval_NotifierFailureIgnored(t *testing.T) {
	n := &stubNotifier{err: assert.AnError}
	e, err := New(nil, highRiskDiagnoser(), &stubExecutor{}, &stubCreds{}, n, nil, zap.NewNop())
	require.NoError(t, err)

	e.processAlert(context.Background(), testAlert())

	assert.Equal(t, 1, n.count())
	assert.Len(t, e.ListPendingApprovals(), 1)
}
