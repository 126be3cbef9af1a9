package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

// OutcomeRepo implements contextfiles.OutcomeRepository.
type OutcomeRepo struct{ db *sql.DB }

// NewOutcomeRepo builds an OutcomeRepo backed by db.
func NewOutcomeRepo(db *sql.DB) *OutcomeRepo { return &OutcomeRepo{db: db} }

// ListRecent returns outcomes created since the given time, newest-first,
// capped at limit.
func (r *OutcomeRepo) ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.ThreadOutcome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, outcome_type, summary, created_at FROM thread_outcomes
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.ThreadOutcome
	for rows.Next() {
		var o domain.ThreadOutcome
		var summary sql.NullString
		if err := rows.Scan(&o.ID, &o.ThreadID, &o.OutcomeType, &summary, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Summary = summary.String
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountTotal counts every recorded outcome.
func (r *OutcomeRepo) CountTotal(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thread_outcomes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count outcomes: %w", err)
	}
	return n, nil
}

// ThreadSubject returns the subject of the thread an outcome references,
// empty if the thread no longer exists.
func (r *OutcomeRepo) ThreadSubject(ctx context.Context, threadID int64) (string, error) {
	var subject string
	err := r.db.QueryRowContext(ctx, `SELECT subject FROM threads WHERE id = $1`, threadID).Scan(&subject)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("thread subject: %w", err)
	}
	return subject, nil
}
