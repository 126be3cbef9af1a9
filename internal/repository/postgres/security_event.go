package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/ghostpost/internal/domain"
)

// SecurityEventRepo implements audit.EventRepository plus the identical
// ListPending/CountPending/CountQuarantined read models triage and the
// context-file projector both need — unlike drafts, both packages want
// the same newest-first ordering, so one type satisfies both interfaces.
type SecurityEventRepo struct{ db *sql.DB }

// NewSecurityEventRepo builds a SecurityEventRepo backed by db.
func NewSecurityEventRepo(db *sql.DB) *SecurityEventRepo { return &SecurityEventRepo{db: db} }

const securityEventColumns = `id, event_type, severity, email_id, thread_id, details, quarantined,
	resolution, created_at`

func scanSecurityEvent(row interface{ Scan(...any) error }) (*domain.SecurityEvent, error) {
	var e domain.SecurityEvent
	var emailID, threadID sql.NullInt64
	var detailsRaw []byte

	if err := row.Scan(
		&e.ID, &e.EventType, &e.Severity, &emailID, &threadID, &detailsRaw, &e.Quarantined,
		&e.Resolution, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if emailID.Valid {
		v := emailID.Int64
		e.EmailID = &v
	}
	if threadID.Valid {
		v := threadID.Int64
		e.ThreadID = &v
	}
	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal security event details: %w", err)
		}
	}
	return &e, nil
}

// InsertSecurityEvent persists e, assigning e.ID from the generated key.
func (r *SecurityEventRepo) InsertSecurityEvent(ctx context.Context, e *domain.SecurityEvent) error {
	detailsRaw, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal security event details: %w", err)
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO security_events (event_type, severity, email_id, thread_id, details, quarantined, resolution, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`, e.EventType, e.Severity, e.EmailID, e.ThreadID, detailsRaw, e.Quarantined, e.Resolution).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// ListSecurityEvents returns events with the given resolution, newest-first.
func (r *SecurityEventRepo) ListSecurityEvents(ctx context.Context, resolution domain.EventResolution) ([]domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+securityEventColumns+` FROM security_events
		WHERE resolution = $1
		ORDER BY created_at DESC
	`, resolution)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	defer rows.Close()
	return scanSecurityEventRows(rows)
}

// CountQuarantined counts events still flagged quarantined.
func (r *SecurityEventRepo) CountQuarantined(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM security_events WHERE quarantined = true`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quarantined security events: %w", err)
	}
	return n, nil
}

// ListPending returns pending events, newest-first, capped at limit. Used
// by both triage and the projector.
func (r *SecurityEventRepo) ListPending(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+securityEventColumns+` FROM security_events
		WHERE resolution = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, domain.ResolutionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending security events: %w", err)
	}
	defer rows.Close()
	return scanSecurityEventRows(rows)
}

// CountPending counts events awaiting triage.
func (r *SecurityEventRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM security_events WHERE resolution = $1`, domain.ResolutionPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending security events: %w", err)
	}
	return n, nil
}

func scanSecurityEventRows(rows *sql.Rows) ([]domain.SecurityEvent, error) {
	var out []domain.SecurityEvent
	for rows.Next() {
		e, err := scanSecurityEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
