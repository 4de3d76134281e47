package engine

import "sync"

// AuditLog is the append-only record of remediation lifecycle events.
//
// One entry is written when an alert's processing pass completes,
// snapshotting every action it spawned (including rollbacks). If an
// action was still pending approval at that point, its later resolution
// is recorded as a second entry under the same remediation ID. Entries
// are never updated or deleted; memory is bounded by dropping the oldest
// entries once maxEntries is exceeded.
type AuditLog struct {
	mu         sync.RWMutex
	entries    []AuditEntry
	maxEntries int
}

// NewAuditLog creates an audit log bounded to maxEntries records.
func NewAuditLog(maxEntries int) *AuditLog {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &AuditLog{maxEntries: maxEntries}
}

// Append records one immutable entry.
func (l *AuditLog) Append(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}
}

// History returns up to limit entries, newest first. A non-positive
// limit returns up to 100 entries.
func (l *AuditLog) History(limit int) []AuditEntry {
	if limit <= 0 {
		limit = 100
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.entries)
	if limit > n {
		limit = n
	}

	out := make([]AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// ByRemediation returns all entries for one remediation ID, newest first.
func (l *AuditLog) ByRemediation(remediationID string) []AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []AuditEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].RemediationID == remediationID {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// Len returns the number of stored entries.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
