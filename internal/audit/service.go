package audit

import (
	"context"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

// Service is the C6 event/audit log.
type Service struct {
	events  EventRepository
	actions ActionRepository
}

// New builds an audit Service over the given repositories.
func New(events EventRepository, actions ActionRepository) *Service {
	return &Service{events: events, actions: actions}
}

// LogSecurityEventParams carries the fields of a new SecurityEvent.
type LogSecurityEventParams struct {
	EventType   string
	Severity    domain.Severity
	Details     map[string]any
	EmailID     *int64
	ThreadID    *int64
	Quarantined bool
}

// LogSecurityEvent appends an immutable security-event row.
func (s *Service) LogSecurityEvent(ctx context.Context, p LogSecurityEventParams) (*domain.SecurityEvent, error) {
	ev := &domain.SecurityEvent{
		EventType:   p.EventType,
		Severity:    p.Severity,
		EmailID:     p.EmailID,
		ThreadID:    p.ThreadID,
		Details:     p.Details,
		Quarantined: p.Quarantined,
		Resolution:  domain.ResolutionPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.events.InsertSecurityEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// LogAction appends an audit-log row for a user/agent action.
func (s *Service) LogAction(ctx context.Context, actor, actionType, subjectID string, metadata map[string]any) error {
	a := &domain.AuditLog{
		Actor:      actor,
		ActionType: actionType,
		SubjectID:  subjectID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	return s.actions.InsertAuditLog(ctx, a)
}
