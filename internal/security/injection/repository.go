package injection

import (
	"context"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
)

// EmailLoader loads a single Email by id for scanning.
type EmailLoader interface {
	GetEmail(ctx context.Context, id int64) (*domain.Email, error)
}

// EventLogger records a SecurityEvent produced by the detector. Satisfied
// by *audit.Service.
type EventLogger interface {
	LogSecurityEvent(ctx context.Context, p audit.LogSecurityEventParams) (*domain.SecurityEvent, error)
}
