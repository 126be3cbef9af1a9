package audit

import (
	"context"

	"github.com/ignite/ghostpost/internal/domain"
)

// EventRepository persists SecurityEvent rows.
type EventRepository interface {
	InsertSecurityEvent(ctx context.Context, e *domain.SecurityEvent) error
	ListSecurityEvents(ctx context.Context, resolution domain.EventResolution) ([]domain.SecurityEvent, error)
	CountQuarantined(ctx context.Context) (int, error)
}

// ActionRepository persists AuditLog rows.
type ActionRepository interface {
	InsertAuditLog(ctx context.Context, a *domain.AuditLog) error
}
