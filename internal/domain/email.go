package domain

import "time"

// Attachment describes one file attached to an Email. Content bytes, when
// persisted, live in the attachment blob store (internal/attachments);
// BlobKey references that store.
type Attachment struct {
	Filename    string `json:"filename" db:"filename"`
	ContentType string `json:"content_type" db:"content_type"`
	SizeBytes   int64  `json:"size_bytes" db:"size_bytes"`
	BlobKey     string `json:"blob_key,omitempty" db:"blob_key"`
}

// Email is one message belonging to a Thread.
type Email struct {
	ID       int64 `json:"id" db:"id"`
	ThreadID int64 `json:"thread_id" db:"thread_id"`

	FromAddress string   `json:"from_address" db:"from_address"`
	ToAddresses AddressList `json:"to_addresses" db:"to_addresses"`

	BodyPlain string `json:"body_plain" db:"body_plain"`
	BodyHTML  string `json:"body_html" db:"body_html"`
	Subject   string `json:"subject" db:"subject"`

	Sent bool `json:"sent" db:"sent"`
	Read bool `json:"read" db:"read"`

	ReceivedAt time.Time  `json:"received_at" db:"received_at"`
	SentDate   *time.Time `json:"sent_date,omitempty" db:"sent_date"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	Sentiment      string   `json:"sentiment,omitempty" db:"sentiment"`
	Urgency        string   `json:"urgency,omitempty" db:"urgency"`
	ActionRequired bool     `json:"action_required" db:"action_required"`
	SecurityScore  *float64 `json:"security_score,omitempty" db:"security_score"`

	Attachments []Attachment `json:"attachments,omitempty" db:"-"`
}

// Date returns the email's best-known timestamp, preferring the
// sender-provided date, then the received timestamp, then creation time —
// the `coalesce(date, received_at, created_at)` ordering spec.md §4.C12
// requires when sorting a thread's messages.
func (e Email) Date() time.Time {
	if e.SentDate != nil {
		return *e.SentDate
	}
	if !e.ReceivedAt.IsZero() {
		return e.ReceivedAt
	}
	return e.CreatedAt
}

// HasAnalysisFields reports whether any of the per-message analysis
// labels were set, gating the "## Analysis" section of a thread file.
func (e Email) HasAnalysisFields() bool {
	return e.Sentiment != "" || e.Urgency != "" || e.ActionRequired
}
