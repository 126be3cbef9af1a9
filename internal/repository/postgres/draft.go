package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/ghostpost/internal/domain"
)

// DraftRepo implements triage.DraftRepository directly: ListPending
// oldest-first, matching the natural chronological order the triage
// engine walks pending work in.
type DraftRepo struct{ db *sql.DB }

// NewDraftRepo builds a DraftRepo backed by db.
func NewDraftRepo(db *sql.DB) *DraftRepo { return &DraftRepo{db: db} }

const draftColumns = `id, thread_id, to_addresses, subject, body, status, created_at`

func scanDraft(row interface{ Scan(...any) error }) (*domain.Draft, error) {
	var d domain.Draft
	var toRaw []byte
	if err := row.Scan(&d.ID, &d.ThreadID, &toRaw, &d.Subject, &d.Body, &d.Status, &d.CreatedAt); err != nil {
		return nil, err
	}
	if len(toRaw) > 0 {
		if err := json.Unmarshal(toRaw, &d.To); err != nil {
			return nil, fmt.Errorf("unmarshal draft to_addresses: %w", err)
		}
	}
	return &d, nil
}

// ListPending returns pending drafts, oldest-first.
func (r *DraftRepo) ListPending(ctx context.Context) ([]domain.Draft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+draftColumns+` FROM drafts
		WHERE status = $1
		ORDER BY created_at ASC
	`, domain.DraftPending)
	if err != nil {
		return nil, fmt.Errorf("list pending drafts: %w", err)
	}
	defer rows.Close()

	var out []domain.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// CountPending answers the projector's pending-draft count.
func (r *DraftRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drafts WHERE status = $1`, domain.DraftPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending drafts: %w", err)
	}
	return n, nil
}

// ReverseChronDraftRepo adapts DraftRepo to contextfiles.DraftRepository,
// whose ListPending contract is newest-first — the opposite order from
// triage.DraftRepository's. One concrete method can't serve both
// orderings, so the projector gets this thin wrapper instead of DraftRepo
// directly.
type ReverseChronDraftRepo struct{ inner *DraftRepo }

// NewReverseChronDraftRepo wraps repo for contextfiles' newest-first contract.
func NewReverseChronDraftRepo(repo *DraftRepo) *ReverseChronDraftRepo {
	return &ReverseChronDraftRepo{inner: repo}
}

// ListPending returns pending drafts, newest-first.
func (r *ReverseChronDraftRepo) ListPending(ctx context.Context) ([]domain.Draft, error) {
	drafts, err := r.inner.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(drafts)-1; i < j; i, j = i+1, j-1 {
		drafts[i], drafts[j] = drafts[j], drafts[i]
	}
	return drafts, nil
}

// CountPending delegates to the wrapped repo; count has no ordering.
func (r *ReverseChronDraftRepo) CountPending(ctx context.Context) (int, error) {
	return r.inner.CountPending(ctx)
}
