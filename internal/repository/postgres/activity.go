package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ActivityRepo answers the 24-hour activity digest SYSTEM_BRIEF shows,
// spanning both the emails and audit_log tables.
type ActivityRepo struct{ db *sql.DB }

// NewActivityRepo builds an ActivityRepo backed by db.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// CountEmailsReceivedSince counts inbound emails received since the given
// time.
func (r *ActivityRepo) CountEmailsReceivedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emails WHERE sent = false AND received_at >= $1`, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count emails received since: %w", err)
	}
	return n, nil
}

// CountEmailsSentSince counts outbound emails sent since the given time.
func (r *ActivityRepo) CountEmailsSentSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emails WHERE sent = true AND sent_date >= $1`, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count emails sent since: %w", err)
	}
	return n, nil
}

// CountAuditActionSince counts audit_log rows of actionType since the
// given time.
func (r *ActivityRepo) CountAuditActionSince(ctx context.Context, actionType string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE action_type = $1 AND created_at >= $2`, actionType, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit action since: %w", err)
	}
	return n, nil
}
