package domain

import "time"

// ThreadOutcome is a terminal record attached to a thread post-close.
type ThreadOutcome struct {
	ID          int64     `json:"id" db:"id"`
	ThreadID    int64     `json:"thread_id" db:"thread_id"`
	OutcomeType string    `json:"outcome_type" db:"outcome_type"`
	Summary     string    `json:"summary,omitempty" db:"summary"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
