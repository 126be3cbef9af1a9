package domain

import "time"

// ThreadState is the thread lifecycle enum driven by internal/threads.
type ThreadState string

const (
	ThreadNew           ThreadState = "NEW"
	ThreadActive        ThreadState = "ACTIVE"
	ThreadWaitingReply  ThreadState = "WAITING_REPLY"
	ThreadFollowUp      ThreadState = "FOLLOW_UP"
	ThreadGoalMet       ThreadState = "GOAL_MET"
	ThreadArchived      ThreadState = "ARCHIVED"
)

// IsTerminal reports whether a state is terminal for follow-up scheduling
// purposes (spec.md §4.C7: GOAL_MET, ARCHIVED).
func (s ThreadState) IsTerminal() bool {
	return s == ThreadGoalMet || s == ThreadArchived
}

// ThreadPriority is a coarse urgency label used by the triage engine.
type ThreadPriority string

const (
	PriorityLow      ThreadPriority = "low"
	PriorityNormal   ThreadPriority = "normal"
	PriorityHigh     ThreadPriority = "high"
	PriorityCritical ThreadPriority = "critical"
)

// GoalStatus tracks progress toward a thread's stated goal.
type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalMet        GoalStatus = "met"
	GoalAbandoned  GoalStatus = "abandoned"
)

// AutoReplyMode controls how aggressively the agent may act on a thread.
type AutoReplyMode string

const (
	AutoReplyOff   AutoReplyMode = "off"
	AutoReplyDraft AutoReplyMode = "draft"
	AutoReplyAuto  AutoReplyMode = "auto"
)

// Thread is an ordered conversation owning zero-or-more Emails (a Thread
// with zero emails is invalid and is filtered out by queries, per
// spec.md §3).
type Thread struct {
	ID      int64  `json:"id" db:"id"`
	Subject string `json:"subject" db:"subject"`

	State    ThreadState    `json:"state" db:"state"`
	Priority ThreadPriority `json:"priority" db:"priority"`
	Category string         `json:"category,omitempty" db:"category"`

	Summary            string     `json:"summary,omitempty" db:"summary"`
	Goal               string     `json:"goal,omitempty" db:"goal"`
	AcceptanceCriteria string     `json:"acceptance_criteria,omitempty" db:"acceptance_criteria"`
	GoalStatus         GoalStatus `json:"goal_status,omitempty" db:"goal_status"`

	Playbook      string        `json:"playbook,omitempty" db:"playbook"`
	AutoReplyMode AutoReplyMode `json:"auto_reply_mode" db:"auto_reply_mode"`

	FollowUpIntervalDays int        `json:"follow_up_interval_days" db:"follow_up_interval_days"`
	NextFollowUpAt       *time.Time `json:"next_follow_up_at,omitempty" db:"next_follow_up_at"`

	SecurityScoreAvg float64   `json:"security_score_avg" db:"security_score_avg"`
	LastActivityAt   time.Time `json:"last_activity_at" db:"last_activity_at"`
	Notes            string    `json:"notes,omitempty" db:"notes"`

	Emails []Email `json:"emails,omitempty" db:"-"`
}

// UnreadCount returns how many of the thread's loaded emails are unread.
func (t Thread) UnreadCount() int {
	n := 0
	for _, e := range t.Emails {
		if !e.Read {
			n++
		}
	}
	return n
}

// IsOverdue reports whether the thread's next follow-up has come due.
func (t Thread) IsOverdue(now time.Time) bool {
	return t.NextFollowUpAt != nil && !t.NextFollowUpAt.After(now)
}

// OverdueDays returns how many days past the follow-up date the thread is;
// zero if not overdue.
func (t Thread) OverdueDays(now time.Time) int {
	if !t.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(*t.NextFollowUpAt).Hours() / 24)
}

// RecomputeSecurityScoreAvg recomputes the mean of the thread's emails'
// security scores, per spec.md §3's "recomputed on insert" invariant.
func (t *Thread) RecomputeSecurityScoreAvg() {
	var sum float64
	var n int
	for _, e := range t.Emails {
		if e.SecurityScore != nil {
			sum += *e.SecurityScore
			n++
		}
	}
	if n == 0 {
		t.SecurityScoreAvg = 0
		return
	}
	t.SecurityScoreAvg = sum / float64(n)
}

// Participants returns the deduplicated set of From/To addresses across
// every email in the thread, in first-seen order.
func (t Thread) Participants() []string {
	seen := map[string]bool{}
	var out []string
	add := func(addr string) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	}
	for _, e := range t.Emails {
		add(e.FromAddress)
		for _, to := range e.ToAddresses.Normalize() {
			add(to)
		}
	}
	return out
}
