package domain

import (
	"strings"
	"time"
)

// Severity is the shared severity scale for SecurityEvents and alerts.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityInfo     Severity = "info"
)

// severityRank gives the total order critical > high > medium > info used
// by GetMaxSeverity (spec.md §4.C2, testable property 4).
var severityRank = map[Severity]int{
	SeverityCritical: 3,
	SeverityHigh:     2,
	SeverityMedium:   1,
	SeverityInfo:     0,
}

// Rank returns the severity's position in the total order, 0 for unknown
// values.
func (s Severity) Rank() int { return severityRank[s] }

// Label returns the upper-cased display label used in the alert log
// (spec.md §4.C10): known severities map explicitly, unknown values are
// just upper-cased.
func (s Severity) Label() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityInfo:
		return "INFO"
	default:
		return strings.ToUpper(string(s))
	}
}

// EventResolution is the triage state of a SecurityEvent.
type EventResolution string

const (
	ResolutionPending   EventResolution = "pending"
	ResolutionDismissed EventResolution = "dismissed"
	ResolutionApproved  EventResolution = "approved"
)

// SecurityEvent is an immutable audit record produced by the safety
// pipeline (injection detection, rate limiting, send-gate blocks, ...).
type SecurityEvent struct {
	ID          int64           `json:"id" db:"id"`
	EventType   string          `json:"event_type" db:"event_type"`
	Severity    Severity        `json:"severity" db:"severity"`
	EmailID     *int64          `json:"email_id,omitempty" db:"email_id"`
	ThreadID    *int64          `json:"thread_id,omitempty" db:"thread_id"`
	Details     map[string]any  `json:"details,omitempty" db:"details"`
	Quarantined bool            `json:"quarantined" db:"quarantined"`
	Resolution  EventResolution `json:"resolution" db:"resolution"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
