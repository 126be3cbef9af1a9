package sendgate

import (
	"context"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
)

// RateChecker is the rate-limit half of C4 that C5 needs. Satisfied by
// *anomaly.Service.
type RateChecker interface {
	CheckSendRate(ctx context.Context, actor string, limit int) (count int, limited bool, err error)
	IncrementSendRate(ctx context.Context, actor string) error
}

// EventLogger records a SecurityEvent. Satisfied by *audit.Service.
type EventLogger interface {
	LogSecurityEvent(ctx context.Context, p audit.LogSecurityEventParams) (*domain.SecurityEvent, error)
}

// ThreadLoader fetches the thread owning an outbound send, when known.
type ThreadLoader interface {
	GetThread(ctx context.Context, id int64) (*domain.Thread, error)
}
