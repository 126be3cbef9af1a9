package triage

import (
	"context"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

// ThreadRepository is the thread-side read model the triage engine needs.
type ThreadRepository interface {
	CountByState(ctx context.Context) (map[domain.ThreadState]int, error)
	CountUnread(ctx context.Context) (int, error)
	// ListOverdue returns WAITING_REPLY/FOLLOW_UP threads whose
	// next_follow_up_at has passed, ordered oldest-deadline-first.
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Thread, error)
	// ListNew returns NEW threads, most-recent-activity-first, capped at limit.
	ListNew(ctx context.Context, limit int) ([]domain.Thread, error)
	// ListActiveGoalInProgress returns ACTIVE threads with a set goal and
	// goal_status = in_progress, capped at limit.
	ListActiveGoalInProgress(ctx context.Context, limit int) ([]domain.Thread, error)
}

// DraftRepository is the draft-side read model the triage engine needs.
type DraftRepository interface {
	// ListPending returns pending drafts, oldest-first.
	ListPending(ctx context.Context) ([]domain.Draft, error)
}

// SecurityEventRepository is the security-event read model the triage
// engine needs.
type SecurityEventRepository interface {
	// ListPending returns pending SecurityEvents, newest-first, capped at limit.
	ListPending(ctx context.Context, limit int) ([]domain.SecurityEvent, error)
}
