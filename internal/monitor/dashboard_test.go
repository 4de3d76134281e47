package monitor

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

func TestUpdate_SnapshotComputesRateAndHistory(t *testing.T) {
	m := NewModel("http://localhost:9482", time.Second)

	next, _ := m.Update(snapshotMsg(Snapshot{
		Stats: engine.Statistics{TotalAlerts: 5, PendingApprovals: 2, Mode: engine.ModeSemiAuto},
	}))
	model := next.(Model)

	assert.Equal(t, 5.0, model.snapshot.AlertRate)
	assert.Equal(t, []float64{5}, model.snapshot.AlertRateHistory)
	assert.Equal(t, []float64{2}, model.snapshot.PendingHistory)

	next, _ = model.Update(snapshotMsg(Snapshot{
		Stats: engine.Statistics{TotalAlerts: 8, Mode: engine.ModeSemiAuto},
	}))
	model = next.(Model)
	assert.Equal(t, 3.0, model.snapshot.AlertRate)
	assert.Equal(t, []float64{5, 3}, model.snapshot.AlertRateHistory)
}

func TestUpdate_CounterResetClampsRate(t *testing.T) {
	m := NewModel("http://localhost:9482", time.Second)

	next, _ := m.Update(snapshotMsg(Snapshot{Stats: engine.Statistics{TotalAlerts: 100}}))
	next, _ = next.(Model).Update(snapshotMsg(Snapshot{Stats: engine.Statistics{TotalAlerts: 2}}))

	assert.Equal(t, 0.0, next.(Model).snapshot.AlertRate)
}

func TestUpdate_QuitKeys(t *testing.T) {
	m := NewModel("http://localhost:9482", time.Second)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, next.(Model).quitting)
	require.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func TestView_ErrorState(t *testing.T) {
	m := NewModel("http://localhost:9482", time.Second)

	next, _ := m.Update(errMsg(assert.AnError))
	view := next.(Model).View()
	assert.Contains(t, view, "Cannot reach remedyd")
}

func TestView_Dashboard(t *testing.T) {
	m := NewModel("http://localhost:9482", time.Second)

	next, _ := m.Update(snapshotMsg(Snapshot{
		Stats: engine.Statistics{
			TotalAlerts:        12,
			AutoRemediated:     9,
			FailedRemediations: 1,
			PendingApprovals:   1,
			AvgResolutionTime:  2.5,
			Mode:               engine.ModeSemiAuto,
		},
		Approvals: []engine.PendingApproval{{
			ActionID:    "0f9a4a3e-1111-2222-3333-444455556666",
			Command:     "systemctl restart nginx",
			RiskLevel:   engine.RiskHigh,
			RequestedAt: time.Now().Add(-30 * time.Second),
		}},
	}))

	view := next.(Model).View()
	assert.Contains(t, view, "remedyd Monitor")
	assert.Contains(t, view, "SEMI AUTO")
	assert.Contains(t, view, "systemctl restart nginx")
	assert.Contains(t, view, "0f9a4a3e")
}

func TestHistoryBounded(t *testing.T) {
	history := make([]float64, 0, historySize)
	for i := 0; i < historySize+10; i++ {
		history = appendToHistory(history, float64(i))
	}
	assert.Len(t, history, historySize)
	assert.Equal(t, float64(10), history[0])
}
