package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateActions(t *testing.T) {
	alert := testAlert()
	diag := testDiagnosis(
		Recommendation{Command: "top -bn1", Description: "Inspect", Risk: "none"},
		Recommendation{Command: "systemctl restart nginx", Description: "Restart", Risk: "high", Rollback: "systemctl start nginx"},
		Recommendation{Command: "", Description: "Advice only"},
		Recommendation{Command: "reboot", Description: "Reboot", Risk: "banana"},
	)

	actions := GenerateActions(alert, diag)
	require.Len(t, actions, 3)

	for _, a := range actions {
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, alert.ID, a.AlertID)
		assert.Equal(t, diag.ID, a.DiagnosisID)
		assert.Equal(t, StatusCreated, a.Status)
		assert.False(t, a.CreatedAt.IsZero())
	}

	// "none" maps to low, unknown maps to medium.
	assert.Equal(t, RiskLow, actions[0].RiskLevel)
	assert.Equal(t, RiskHigh, actions[1].RiskLevel)
	assert.Equal(t, "systemctl start nginx", actions[1].RollbackCommand)
	assert.Equal(t, RiskMedium, actions[2].RiskLevel)

	// Distinct IDs.
	assert.NotEqual(t, actions[0].ID, actions[1].ID)
}

func TestGenerateActions_Empty(t *testing.T) {
	actions := GenerateActions(testAlert(), testDiagnosis())
	assert.Empty(t, actions)
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in   string
		want RiskLevel
	}{
		{"low", RiskLow},
		{"medium", RiskMedium},
		{"high", RiskHigh},
		{"critical", RiskCritical},
		{"none", RiskLow},
		{"", RiskMedium},
		{"unknown", RiskMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRiskLevel(tt.in), "input %q", tt.in)
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"manual", "semi_auto", "full_auto"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}

	_, err := ParseMode("auto")
	assert.Error(t, err)
}

func TestActionStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPendingApproval.Terminal())
	assert.False(t, StatusExecuting.Terminal())
}
