package contextfiles

import (
	"context"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

// ThreadRepository is the thread-side read model the projector needs.
type ThreadRepository interface {
	CountByState(ctx context.Context) (map[domain.ThreadState]int, error)
	CountUnreadEmails(ctx context.Context) (int, error)
	// LastSyncAt returns the most recent email received_at across all
	// threads, nil if there are no emails yet.
	LastSyncAt(ctx context.Context) (*time.Time, error)
	// ListNeedsAttention returns non-archived threads with priority
	// critical/high or an overdue follow-up, ordered priority desc then
	// follow-up-date asc, capped at limit.
	ListNeedsAttention(ctx context.Context, now time.Time, limit int) ([]domain.Thread, error)
	// ListGoalInProgress returns threads with goal_status = in_progress,
	// most-recently-active first.
	ListGoalInProgress(ctx context.Context) ([]domain.Thread, error)
	// ListWithGoal returns every thread with a goal set, most-recently-
	// active first.
	ListWithGoal(ctx context.Context) ([]domain.Thread, error)
	// ListNonArchived returns non-archived threads with emails loaded,
	// most-recently-active first, capped at limit.
	ListNonArchived(ctx context.Context, limit int) ([]domain.Thread, error)
	// ListAllWithEmails returns every thread (any state) with emails
	// loaded, for the bulk per-thread file writer.
	ListAllWithEmails(ctx context.Context) ([]domain.Thread, error)
	// GetWithEmails loads a single thread with its emails.
	GetWithEmails(ctx context.Context, id int64) (*domain.Thread, error)
}

// ContactRepository is the contact-side read model the projector needs.
type ContactRepository interface {
	// ListRecent returns contacts ordered by last_interaction desc,
	// capped at limit.
	ListRecent(ctx context.Context, limit int) ([]domain.Contact, error)
}

// DraftRepository is the draft-side read model the projector needs.
type DraftRepository interface {
	// ListPending returns pending drafts, newest-first.
	ListPending(ctx context.Context) ([]domain.Draft, error)
	CountPending(ctx context.Context) (int, error)
}

// SecurityEventRepository is the security-event read model the projector
// needs.
type SecurityEventRepository interface {
	// ListPending returns pending SecurityEvents, newest-first, capped
	// at limit.
	ListPending(ctx context.Context, limit int) ([]domain.SecurityEvent, error)
	CountPending(ctx context.Context) (int, error)
	CountQuarantined(ctx context.Context) (int, error)
}

// ActivityRepository answers the 24-hour activity digest SYSTEM_BRIEF
// shows.
type ActivityRepository interface {
	CountEmailsReceivedSince(ctx context.Context, since time.Time) (int, error)
	CountEmailsSentSince(ctx context.Context, since time.Time) (int, error)
	// CountAuditActionSince counts AuditLog rows of actionType since the
	// given time (e.g. "draft_created", "draft_approved").
	CountAuditActionSince(ctx context.Context, actionType string, since time.Time) (int, error)
}

// OutcomeRepository is the read model for COMPLETED_OUTCOMES.md.
type OutcomeRepository interface {
	// ListRecent returns outcomes created since the given time,
	// newest-first, capped at limit.
	ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.ThreadOutcome, error)
	CountTotal(ctx context.Context) (int, error)
	// ThreadSubject returns the subject of a thread referenced by an
	// outcome, empty if the thread no longer exists.
	ThreadSubject(ctx context.Context, threadID int64) (string, error)
}

// ResearchCampaign is the thin projection of the out-of-scope research
// pipeline's campaign entity: only enough to list what is in flight.
type ResearchCampaign struct {
	ID          int64
	CompanyName string
	Status      string
}

// ResearchRepository is the read model for RESEARCH.md's thin listing.
type ResearchRepository interface {
	ListActiveCampaigns(ctx context.Context, limit int) ([]ResearchCampaign, error)
}
