package sendgate

import (
	"context"
	"fmt"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/security/commitment"
)

const defaultRateLimit = 20

// Decision is the result of CheckSendAllowed. Reasons always block;
// warnings never do.
type Decision struct {
	Allowed  bool
	Reasons  []string
	Warnings []string
}

// Service composes C1-C4 into the single pre-send decision.
type Service struct {
	settings  domain.SettingsStore
	rates     RateChecker
	events    EventLogger
	threads   ThreadLoader
	rateLimit int
}

// New builds a Service. rateLimit <= 0 falls back to the spec default of 20.
func New(settings domain.SettingsStore, rates RateChecker, events EventLogger, threads ThreadLoader, rateLimit int) *Service {
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	return &Service{settings: settings, rates: rates, events: events, threads: threads, rateLimit: rateLimit}
}

// CheckSendAllowed is the entry point every outbound send must pass
// through (spec.md §4.C5). actor identifies the rate-limit bucket, almost
// always "agent". threadID is optional.
func (s *Service) CheckSendAllowed(ctx context.Context, to domain.AddressList, body, actor string, threadID *int64) (Decision, error) {
	var d Decision

	blocklist := loadBlocklist(s.settings)
	for _, addr := range to.Normalize() {
		if isBlocked(addr, blocklist) {
			d.Reasons = append(d.Reasons, fmt.Sprintf("recipient on blocklist: %s", addr))
		}
	}

	count, limited, err := s.rates.CheckSendRate(ctx, actor, s.rateLimit)
	if err != nil {
		d.Reasons = append(d.Reasons, "rate limiter unavailable")
	} else if limited {
		d.Reasons = append(d.Reasons, fmt.Sprintf("send rate limit reached: %d/%d per hour", count, s.rateLimit))
		if _, err := s.events.LogSecurityEvent(ctx, audit.LogSecurityEventParams{
			EventType: "rate_limit_exceeded",
			Severity:  domain.SeverityHigh,
			ThreadID:  threadID,
			Details: map[string]any{
				"actor": actor,
				"count": count,
				"limit": s.rateLimit,
			},
		}); err != nil {
			return d, err
		}
	}

	for _, c := range commitment.DetectCommitments(body) {
		d.Warnings = append(d.Warnings, fmt.Sprintf("commitment detected (%s): %s", c.Type, c.Description))
	}

	for _, topic := range checkSensitiveTopics(body) {
		d.Warnings = append(d.Warnings, fmt.Sprintf("sensitive topic mentioned: %s", topic))
	}

	if threadID != nil {
		thread, err := s.threads.GetThread(ctx, *threadID)
		if err != nil {
			return d, err
		}
		if thread != nil && thread.SecurityScoreAvg < 50 {
			d.Warnings = append(d.Warnings, fmt.Sprintf("thread security score average is low: %.1f", thread.SecurityScoreAvg))
		}
	}

	d.Allowed = len(d.Reasons) == 0
	return d, nil
}

// RecordSend bumps actor's rate-limit counter once a send has actually
// gone out. Called after the mail provider confirms delivery, never
// before, so a send blocked by CheckSendAllowed never counts against the
// bucket.
func (s *Service) RecordSend(ctx context.Context, actor string) error {
	return s.rates.IncrementSendRate(ctx, actor)
}
