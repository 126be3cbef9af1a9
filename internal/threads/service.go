package threads

import (
	"context"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

const defaultFollowUpDays = 3

// allowed is the transition table from spec.md §4.C7. Transitions not
// listed here are rejected with ErrInvalidTransition.
var allowed = map[domain.ThreadState][]domain.ThreadState{
	domain.ThreadNew:          {domain.ThreadActive, domain.ThreadArchived},
	domain.ThreadActive:       {domain.ThreadWaitingReply, domain.ThreadGoalMet, domain.ThreadArchived},
	domain.ThreadWaitingReply: {domain.ThreadActive, domain.ThreadFollowUp, domain.ThreadGoalMet, domain.ThreadArchived},
	domain.ThreadFollowUp:     {domain.ThreadWaitingReply, domain.ThreadGoalMet, domain.ThreadArchived},
	domain.ThreadGoalMet:      {domain.ThreadArchived},
	domain.ThreadArchived:     {domain.ThreadActive},
}

func canTransition(from, to domain.ThreadState) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Service implements the thread lifecycle operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New builds a Service. now defaults to time.Now when nil.
func New(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Thread, error) {
	t, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// transition moves the thread to `to`, clearing NextFollowUpAt whenever
// the destination is terminal (spec.md §4.C7).
func (s *Service) transition(ctx context.Context, id int64, to domain.ThreadState) (*domain.Thread, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(t.State, to) {
		return nil, ErrInvalidTransition
	}
	t.State = to
	if to.IsTerminal() {
		t.NextFollowUpAt = nil
	}
	if err := s.repo.UpdateThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Triage transitions NEW -> ACTIVE when an operator or agent views the
// thread. It is a no-op (not an error) for any other current state.
func (s *Service) Triage(ctx context.Context, id int64) (*domain.Thread, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.State != domain.ThreadNew {
		return t, nil
	}
	return s.transition(ctx, id, domain.ThreadActive)
}

// MarkSent records a successfully sent outbound email: ACTIVE or
// FOLLOW_UP -> WAITING_REPLY, and schedules the next follow-up
// followUpDays (default 3) from now, per spec.md §4.C7's follow-up
// scheduling rule which applies to any outbound send from a non-terminal
// state.
func (s *Service) MarkSent(ctx context.Context, id int64, followUpDays int) (*domain.Thread, error) {
	if followUpDays <= 0 {
		followUpDays = defaultFollowUpDays
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.State.IsTerminal() {
		return nil, ErrInvalidTransition
	}
	if t.State != domain.ThreadWaitingReply {
		if !canTransition(t.State, domain.ThreadWaitingReply) {
			return nil, ErrInvalidTransition
		}
		t.State = domain.ThreadWaitingReply
	}
	next := s.now().Add(time.Duration(followUpDays) * 24 * time.Hour)
	t.NextFollowUpAt = &next
	if err := s.repo.UpdateThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReplyReceived transitions WAITING_REPLY -> ACTIVE on an inbound reply.
func (s *Service) ReplyReceived(ctx context.Context, id int64) (*domain.Thread, error) {
	return s.transition(ctx, id, domain.ThreadActive)
}

// GoalMet transitions ACTIVE, WAITING_REPLY or FOLLOW_UP -> GOAL_MET.
func (s *Service) GoalMet(ctx context.Context, id int64) (*domain.Thread, error) {
	return s.transition(ctx, id, domain.ThreadGoalMet)
}

// Archive transitions any state -> ARCHIVED.
func (s *Service) Archive(ctx context.Context, id int64) (*domain.Thread, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	t.State = domain.ThreadArchived
	t.NextFollowUpAt = nil
	if err := s.repo.UpdateThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Restore transitions ARCHIVED -> ACTIVE.
func (s *Service) Restore(ctx context.Context, id int64) (*domain.Thread, error) {
	return s.transition(ctx, id, domain.ThreadActive)
}

// RunFollowUpScheduler moves every WAITING_REPLY thread whose
// NextFollowUpAt has come due into FOLLOW_UP, returning how many it
// advanced. Intended to be called periodically by the worker process.
func (s *Service) RunFollowUpScheduler(ctx context.Context) (int, error) {
	due, err := s.repo.ListWaitingReplyOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range due {
		if !canTransition(t.State, domain.ThreadFollowUp) {
			continue
		}
		t.State = domain.ThreadFollowUp
		if err := s.repo.UpdateThread(ctx, t); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
