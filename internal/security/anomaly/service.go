package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
)

// Service implements C4's two checks and their composition.
type Service struct {
	rates    RateStore
	contacts ContactRepository
	events   EventLogger
	now      func() time.Time
}

// New builds a Service. now defaults to time.Now when nil, overridden in
// tests that need to control bucket boundaries.
func New(rates RateStore, contacts ContactRepository, events EventLogger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{rates: rates, contacts: contacts, events: events, now: now}
}

func bucketKey(actor string, t time.Time) string {
	return fmt.Sprintf("ghostpost:rate:%s:%s", actor, t.UTC().Format("2006010215"))
}

// CheckSendRate reports actor's current count in the UTC-hour bucket and
// whether it has already hit limit (count == limit blocks, per spec.md
// testable property 5).
func (s *Service) CheckSendRate(ctx context.Context, actor string, limit int) (count int, limited bool, err error) {
	count, err = s.rates.Get(ctx, bucketKey(actor, s.now()))
	if err != nil {
		return 0, false, err
	}
	return count, count >= limit, nil
}

// IncrementSendRate atomically bumps actor's counter for the current
// bucket and sets the bucket's TTL the first time it is created, never
// again (spec.md testable property 6: exactly one EXPIRE per bucket).
func (s *Service) IncrementSendRate(ctx context.Context, actor string) error {
	key := bucketKey(actor, s.now())
	n, err := s.rates.Incr(ctx, key)
	if err != nil {
		return err
	}
	if n == 1 {
		return s.rates.Expire(ctx, key, time.Hour)
	}
	return nil
}

// CheckNewRecipient reports whether address has no matching Contact row.
// Matching is exact, no case-folding — unlike the send gate's blocklist
// this deliberately does not normalize case (spec.md §9).
func (s *Service) CheckNewRecipient(ctx context.Context, address string) (bool, error) {
	exists, err := s.contacts.ContactExists(ctx, address)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Anomalies is the result of CheckAnomalies.
type Anomalies struct {
	RateLimited  bool
	NewRecipient bool
}

// CheckAnomalies runs both checks for an outbound send and logs a
// SecurityEvent when the rate limit is hit. A new, unseen recipient is
// not itself security-event-worthy (spec.md §9) and is reported only in
// the returned struct for the send gate to use as a warning.
func (s *Service) CheckAnomalies(ctx context.Context, to, actor string, rateLimit int) (Anomalies, error) {
	var out Anomalies

	count, limited, err := s.CheckSendRate(ctx, actor, rateLimit)
	if err != nil {
		return out, err
	}
	out.RateLimited = limited

	isNew, err := s.CheckNewRecipient(ctx, to)
	if err != nil {
		return out, err
	}
	out.NewRecipient = isNew

	if limited {
		_, err := s.events.LogSecurityEvent(ctx, audit.LogSecurityEventParams{
			EventType: "rate_limit_exceeded",
			Severity:  domain.SeverityHigh,
			Details: map[string]any{
				"actor": actor,
				"count": count,
				"limit": rateLimit,
			},
			Quarantined: false,
		})
		if err != nil {
			return out, err
		}
	}

	return out, nil
}
