package engine

import (
	"time"

	"github.com/google/uuid"
)

// GenerateActions maps a diagnosis' recommendations to remediation
// actions. The mapping is deterministic: one action per recommendation,
// risk taken from the recommendation's declared risk (default medium).
// Approval requirements are decided later by the engine's mode policy,
// not here.
//
// An empty recommendation list yields an empty slice; the engine treats
// that as "nothing to do".
func GenerateActions(alert Alert, diagnosis *Diagnosis) []*RemediationAction {
	actions := make([]*RemediationAction, 0, len(diagnosis.Recommendations))

	for _, rec := range diagnosis.Recommendations {
		if rec.Command == "" {
			continue
		}
		actions = append(actions, &RemediationAction{
			ID:              uuid.New().String(),
			AlertID:         alert.ID,
			DiagnosisID:     diagnosis.ID,
			Command:         rec.Command,
			Description:     rec.Description,
			RiskLevel:       ParseRiskLevel(rec.Risk),
			RollbackCommand: rec.Rollback,
			Status:          StatusCreated,
			CreatedAt:       time.Now(),
		})
	}

	return actions
}
