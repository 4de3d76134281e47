package engine

import (
	"sync"
	"time"
)

// aggregator keeps the engine's running counters. All mutation goes
// through its methods under one mutex; avg resolution time is a running
// mean over total alerts.
type aggregator struct {
	mu                 sync.Mutex
	totalAlerts        int64
	autoRemediated     int64
	manualApprovals    int64
	failedRemediations int64
	avgResolution      float64 // seconds
	completedRuns      int64
}

func newAggregator() *aggregator {
	return &aggregator{}
}

// AlertReceived counts one ingested alert.
func (a *aggregator) AlertReceived() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalAlerts++
}

// ApprovalRequested counts one action escalated to a human.
func (a *aggregator) ApprovalRequested() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manualApprovals++
}

// ExecutionSucceeded counts one successfully executed action.
func (a *aggregator) ExecutionSucceeded() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoRemediated++
}

// ExecutionFailed counts one failed action (execution failure, missing
// credentials, kill switch refusal, or an unhandled processing error).
func (a *aggregator) ExecutionFailed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failedRemediations++
}

// RunCompleted folds one alert's resolution time into the running mean.
func (a *aggregator) RunCompleted(resolution time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.completedRuns++
	n := float64(a.completedRuns)
	a.avgResolution = (a.avgResolution*(n-1) + resolution.Seconds()) / n
}

// Snapshot returns a point-in-time copy of the counters.
func (a *aggregator) Snapshot() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Statistics{
		TotalAlerts:        a.totalAlerts,
		AutoRemediated:     a.autoRemediated,
		ManualApprovals:    a.manualApprovals,
		FailedRemediations: a.failedRemediations,
		AvgResolutionTime:  a.avgResolution,
	}
}
