package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditEntry(remediationID string) AuditEntry {
	return AuditEntry{
		RemediationID: remediationID,
		Timestamp:     time.Now(),
		Mode:          ModeSemiAuto,
	}
}

func TestAuditLog_HistoryNewestFirst(t *testing.T) {
	log := NewAuditLog(100)
	for i := 0; i < 5; i++ {
		log.Append(auditEntry(fmt.Sprintf("run-%d", i)))
	}

	history := log.History(3)
	require.Len(t, history, 3)
	assert.Equal(t, "run-4", history[0].RemediationID)
	assert.Equal(t, "run-3", history[1].RemediationID)
	assert.Equal(t, "run-2", history[2].RemediationID)
}

func TestAuditLog_DefaultLimit(t *testing.T) {
	log := NewAuditLog(500)
	for i := 0; i < 150; i++ {
		log.Append(auditEntry(fmt.Sprintf("run-%d", i)))
	}

	assert.Len(t, log.History(0), 100)
	assert.Len(t, log.History(-1), 100)
	assert.Len(t, log.History(1000), 150)
}

func TestAuditLog_Bounded(t *testing.T) {
	log := NewAuditLog(3)
	for i := 0; i < 5; i++ {
		log.Append(auditEntry(fmt.Sprintf("run-%d", i)))
	}

	assert.Equal(t, 3, log.Len())

	history := log.History(10)
	require.Len(t, history, 3)
	// Oldest entries were dropped.
	assert.Equal(t, "run-4", history[0].RemediationID)
	assert.Equal(t, "run-2", history[2].RemediationID)
}

func TestAuditLog_ByRemediation(t *testing.T) {
	log := NewAuditLog(100)
	log.Append(auditEntry("run-a"))
	log.Append(auditEntry("run-b"))
	log.Append(auditEntry("run-a"))

	entries := log.ByRemediation("run-a")
	assert.Len(t, entries, 2)
	assert.Empty(t, log.ByRemediation("run-c"))
}
