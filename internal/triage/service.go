package triage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

const (
	defaultLimit       = 10
	securityEventCap   = 20
	newThreadCap       = 10
	goalInProgressCap  = 5
	subjectTruncateLen = 60
)

// Action is one scored, actionable suggestion in a TriageSnapshot.
type Action struct {
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
	Reason     string `json:"reason"`
	Priority   string `json:"priority"`
	Command    string `json:"command"`
	Score      int    `json:"score"`
}

// Summary carries the totals spec.md §4.C8 requires alongside the action list.
type Summary struct {
	TotalThreads       int                         `json:"total_threads"`
	Unread             int                         `json:"unread"`
	ByState            map[domain.ThreadState]int  `json:"by_state"`
	PendingDrafts      int                         `json:"pending_drafts"`
	SecurityIncidents  int                         `json:"security_incidents"`
	OverdueThreads     int                         `json:"overdue_threads"`
	NewThreads         int                         `json:"new_threads"`
}

// OverdueThreadDetail is one row of the parallel overdue-threads list.
type OverdueThreadDetail struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	DaysOverdue int    `json:"days_overdue"`
}

// PendingDraftDetail is one row of the parallel pending-drafts list.
type PendingDraftDetail struct {
	ID       int64   `json:"id"`
	ThreadID int64   `json:"thread_id"`
	Subject  string  `json:"subject"`
	AgeHours float64 `json:"age_hours"`
}

// SecurityIncidentDetail is one row of the parallel security-incidents list.
type SecurityIncidentDetail struct {
	ID        int64           `json:"id"`
	Severity  domain.Severity `json:"severity"`
	EventType string          `json:"event_type"`
	ThreadID  *int64          `json:"thread_id,omitempty"`
}

// NewThreadDetail is one row of the parallel new-threads list.
type NewThreadDetail struct {
	ID       int64                 `json:"id"`
	Subject  string                `json:"subject"`
	Priority domain.ThreadPriority `json:"priority"`
}

// Snapshot is the full triage result.
type Snapshot struct {
	Timestamp          time.Time                `json:"timestamp"`
	Summary            Summary                  `json:"summary"`
	Actions            []Action                 `json:"actions"`
	OverdueThreads     []OverdueThreadDetail    `json:"overdue_threads"`
	PendingDrafts      []PendingDraftDetail     `json:"pending_drafts"`
	SecurityIncidents  []SecurityIncidentDetail `json:"security_incidents"`
	NewThreads         []NewThreadDetail        `json:"new_threads"`
}

// Service implements GetTriageData.
type Service struct {
	threads  ThreadRepository
	drafts   DraftRepository
	events   SecurityEventRepository
	now      func() time.Time
}

// New builds a Service. now defaults to time.Now when nil.
func New(threads ThreadRepository, drafts DraftRepository, events SecurityEventRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{threads: threads, drafts: drafts, events: events, now: now}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// GetTriageData builds the full snapshot (spec.md §4.C8). limit <= 0
// falls back to the spec default of 10.
func (s *Service) GetTriageData(ctx context.Context, limit int) (*Snapshot, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	now := s.now()

	byState, err := s.threads.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range byState {
		total += n
	}

	unread, err := s.threads.CountUnread(ctx)
	if err != nil {
		return nil, err
	}

	drafts, err := s.drafts.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	secEvents, err := s.events.ListPending(ctx, securityEventCap)
	if err != nil {
		return nil, err
	}

	overdue, err := s.threads.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	newThreads, err := s.threads.ListNew(ctx, newThreadCap)
	if err != nil {
		return nil, err
	}

	goalThreads, err := s.threads.ListActiveGoalInProgress(ctx, goalInProgressCap)
	if err != nil {
		return nil, err
	}

	var actions []Action

	for _, ev := range secEvents {
		score := 40
		priority := "high"
		switch ev.Severity {
		case domain.SeverityCritical:
			score = 100
			priority = "critical"
		case domain.SeverityHigh:
			score = 80
		}
		threadRef := ""
		if ev.ThreadID != nil {
			threadRef = fmt.Sprintf(" on thread #%d", *ev.ThreadID)
		}
		actions = append(actions, Action{
			Action:     "review_security",
			TargetType: "security_event",
			TargetID:   ev.ID,
			Reason:     fmt.Sprintf("%s %s%s", ev.Severity.Label(), ev.EventType, threadRef),
			Priority:   priority,
			Command:    "ghostpost quarantine list --json",
			Score:      score,
		})
	}

	for _, d := range drafts {
		ageHours := d.Age(now).Hours()
		score, priority := 35, "medium"
		if ageHours > 2 {
			score, priority = 60, "high"
		}
		subject := d.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		actions = append(actions, Action{
			Action:     "approve_draft",
			TargetType: "draft",
			TargetID:   d.ID,
			Reason:     fmt.Sprintf("Draft pending %.0fh: %s", ageHours, truncate(subject, 50)),
			Priority:   priority,
			Command:    fmt.Sprintf("ghostpost draft-approve %d --json", d.ID),
			Score:      score,
		})
	}

	for _, t := range overdue {
		days := t.OverdueDays(now)
		score, priority := 30, "medium"
		if days > 3 {
			score, priority = 50, "high"
		}
		subject := t.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		actions = append(actions, Action{
			Action:     "follow_up",
			TargetType: "thread",
			TargetID:   t.ID,
			Reason:     fmt.Sprintf("Overdue %dd: %s", days, truncate(subject, 50)),
			Priority:   priority,
			Command:    fmt.Sprintf(`ghostpost reply %d --body "..." --json`, t.ID),
			Score:      score,
		})
	}

	for _, t := range newThreads {
		prio := t.Priority
		if prio == "" {
			prio = domain.PriorityNormal
		}
		score, priority := 15, "low"
		if prio == domain.PriorityHigh || prio == domain.PriorityCritical {
			score, priority = 40, "high"
		}
		subject := t.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		actions = append(actions, Action{
			Action:     "review_new",
			TargetType: "thread",
			TargetID:   t.ID,
			Reason:     fmt.Sprintf("New thread [%s]: %s", prio, truncate(subject, 50)),
			Priority:   priority,
			Command:    fmt.Sprintf("ghostpost brief %d --json", t.ID),
			Score:      score,
		})
	}

	for _, t := range goalThreads {
		actions = append(actions, Action{
			Action:     "check_goal",
			TargetType: "thread",
			TargetID:   t.ID,
			Reason:     fmt.Sprintf("Goal may be met: %s", truncate(t.Goal, 40)),
			Priority:   "low",
			Command:    fmt.Sprintf("ghostpost goal %d --check --json", t.ID),
			Score:      20,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Score > actions[j].Score })
	if len(actions) > limit {
		actions = actions[:limit]
	}

	var overdueDetails []OverdueThreadDetail
	for _, t := range overdue {
		overdueDetails = append(overdueDetails, OverdueThreadDetail{
			ID:          t.ID,
			Subject:     truncate(t.Subject, subjectTruncateLen),
			DaysOverdue: t.OverdueDays(now),
		})
	}

	var draftDetails []PendingDraftDetail
	for _, d := range drafts {
		draftDetails = append(draftDetails, PendingDraftDetail{
			ID:       d.ID,
			ThreadID: d.ThreadID,
			Subject:  truncate(d.Subject, subjectTruncateLen),
			AgeHours: float64(int(d.Age(now).Hours()*10)) / 10,
		})
	}

	var secDetails []SecurityIncidentDetail
	for _, ev := range secEvents {
		secDetails = append(secDetails, SecurityIncidentDetail{
			ID:        ev.ID,
			Severity:  ev.Severity,
			EventType: ev.EventType,
			ThreadID:  ev.ThreadID,
		})
	}

	var newDetails []NewThreadDetail
	for _, t := range newThreads {
		newDetails = append(newDetails, NewThreadDetail{
			ID:       t.ID,
			Subject:  truncate(t.Subject, subjectTruncateLen),
			Priority: t.Priority,
		})
	}

	return &Snapshot{
		Timestamp: now,
		Summary: Summary{
			TotalThreads:      total,
			Unread:            unread,
			ByState:           byState,
			PendingDrafts:     len(drafts),
			SecurityIncidents: len(secEvents),
			OverdueThreads:    len(overdue),
			NewThreads:        len(newThreads),
		},
		Actions:           actions,
		OverdueThreads:    overdueDetails,
		PendingDrafts:     draftDetails,
		SecurityIncidents: secDetails,
		NewThreads:        newDetails,
	}, nil
}
