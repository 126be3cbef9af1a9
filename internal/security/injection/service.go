package injection

import (
	"context"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
)

// Service wires the pure pattern scan to email loading and event logging
// for ScanAndQuarantine.
type Service struct {
	emails EmailLoader
	events EventLogger
}

// New builds an injection Service.
func New(emails EmailLoader, events EventLogger) *Service {
	return &Service{emails: emails, events: events}
}

// ScanAndQuarantine loads the email, scans subject+bodies, and — if any
// pattern matches — records a SecurityEvent with quarantined set for
// critical/high max severity (spec.md §4.C2). A missing email id returns
// an empty match list, not an error.
func (s *Service) ScanAndQuarantine(ctx context.Context, emailID int64) ([]Match, error) {
	email, err := s.emails.GetEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, nil
	}

	matches := ScanEmailContent(email.Subject, email.BodyPlain, email.BodyHTML)
	if len(matches) == 0 {
		return nil, nil
	}

	maxSev := GetMaxSeverity(matches)
	shouldQuarantine := maxSev == Critical || maxSev == High

	matchDetails := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		matchDetails = append(matchDetails, map[string]any{
			"pattern":  m.PatternName,
			"severity": m.Severity,
			"text":     m.MatchedText,
		})
	}

	threadID := &email.ThreadID
	_, err = s.events.LogSecurityEvent(ctx, audit.LogSecurityEventParams{
		EventType: "injection_detected",
		Severity:  domain.Severity(maxSev),
		EmailID:   &email.ID,
		ThreadID:  threadID,
		Details: map[string]any{
			"matches": matchDetails,
			"from":    email.FromAddress,
			"subject": email.Subject,
		},
		Quarantined: shouldQuarantine,
	})
	if err != nil {
		return matches, err
	}
	return matches, nil
}
