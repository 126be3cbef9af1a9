package domain

import "time"

// DraftStatus is the lifecycle of a prepared outbound message.
type DraftStatus string

const (
	DraftPending  DraftStatus = "pending"
	DraftApproved DraftStatus = "approved"
	DraftRejected DraftStatus = "rejected"
	DraftSent     DraftStatus = "sent"
)

// Draft is a prepared outbound message not yet sent.
type Draft struct {
	ID        int64       `json:"id" db:"id"`
	ThreadID  int64       `json:"thread_id" db:"thread_id"`
	To        AddressList `json:"to" db:"to_addresses"`
	Subject   string      `json:"subject" db:"subject"`
	Body      string      `json:"body" db:"body"`
	Status    DraftStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Age returns how long the draft has been pending as of now.
func (d Draft) Age(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt)
}
