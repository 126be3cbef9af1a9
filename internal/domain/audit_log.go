package domain

import "time"

// AuditLog is an immutable trace of a user/agent action.
type AuditLog struct {
	ID         int64          `json:"id" db:"id"`
	Actor      string         `json:"actor" db:"actor"`
	ActionType string         `json:"action_type" db:"action_type"`
	SubjectID  string         `json:"subject_id,omitempty" db:"subject_id"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
