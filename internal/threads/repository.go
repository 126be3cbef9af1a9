package threads

import (
	"context"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

// Repository is the persistence contract the thread state machine needs.
// GetThread returns (nil, nil) for an unknown id; the service translates
// that into ErrNotFound.
type Repository interface {
	GetThread(ctx context.Context, id int64) (*domain.Thread, error)
	UpdateThread(ctx context.Context, t *domain.Thread) error
	// ListWaitingReplyOverdue returns WAITING_REPLY threads whose
	// NextFollowUpAt has come due, for the follow-up scheduler.
	ListWaitingReplyOverdue(ctx context.Context, now time.Time) ([]*domain.Thread, error)
}
