package domain

import "time"

// Notification (a.k.a. "alert") is the in-file-only record the
// notification dispatcher (C9) produces; it is never persisted as its own
// entity, only projected into the alert log and changelog.
type Notification struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	Severity  Severity       `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	ThreadID  *int64         `json:"thread_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
