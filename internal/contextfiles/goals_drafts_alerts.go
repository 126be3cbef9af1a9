package contextfiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

var goalStatusIcon = map[domain.GoalStatus]string{
	domain.GoalInProgress: "🔄",
	domain.GoalMet:        "✅",
	domain.GoalAbandoned:  "❌",
}

// WriteActiveGoals renders ACTIVE_GOALS.md: every thread with a goal
// set, most-recently-active first.
func (s *Service) WriteActiveGoals(ctx context.Context) (string, error) {
	threads, err := s.threads.ListWithGoal(ctx)
	if err != nil {
		return "", err
	}
	inProgress := 0
	for _, t := range threads {
		if t.GoalStatus == domain.GoalInProgress {
			inProgress++
		}
	}

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")
	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: active_goals\ngenerated: %q\ntotal_goals: %d\nin_progress: %d\n---\n",
		now, len(threads), inProgress)
	fmt.Fprintf(&b, "# Active Goals\n*Updated: %s*\n\n**Total goals:** %d\n\n", now, len(threads))

	for _, t := range threads {
		icon, ok := goalStatusIcon[t.GoalStatus]
		if !ok {
			icon = "❓"
		}
		fmt.Fprintf(&b, "### [#%d] %s\n", t.ID, orDefault(t.Subject, "(no subject)"))
		fmt.Fprintf(&b, "- **Goal:** %s\n", t.Goal)
		if t.AcceptanceCriteria != "" {
			fmt.Fprintf(&b, "- **Criteria:** %s\n", t.AcceptanceCriteria)
		}
		fmt.Fprintf(&b, "- **Status:** %s %s\n", icon, orDefault(string(t.GoalStatus), "unknown"))
		fmt.Fprintf(&b, "- **Thread State:** %s\n", t.State)
		if t.Playbook != "" {
			fmt.Fprintf(&b, "- **Playbook:** %s\n", t.Playbook)
		}
		if t.AutoReplyMode != "" && t.AutoReplyMode != domain.AutoReplyOff {
			fmt.Fprintf(&b, "- **Auto-Reply:** %s\n", t.AutoReplyMode)
		}
		if t.NextFollowUpAt != nil {
			fmt.Fprintf(&b, "- **Follow-up:** next: %s\n", t.NextFollowUpAt.UTC().Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	path := s.path("ACTIVE_GOALS.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDrafts renders DRAFTS.md: pending drafts awaiting review.
func (s *Service) WriteDrafts(ctx context.Context) (string, error) {
	drafts, err := s.drafts.ListPending(ctx)
	if err != nil {
		return "", err
	}

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")
	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: drafts\ngenerated: %q\npending_count: %d\n---\n", now, len(drafts))
	fmt.Fprintf(&b, "# Pending Drafts\n*Updated: %s*\n\n**Pending drafts:** %d\n\n", now, len(drafts))

	for _, d := range drafts {
		to := strings.Join(d.To.Normalize(), ", ")
		if to == "" {
			to = "unknown"
		}
		fmt.Fprintf(&b, "### Draft #%d: %s\n", d.ID, orDefault(d.Subject, "(no subject)"))
		fmt.Fprintf(&b, "- **To:** %s\n", to)
		fmt.Fprintf(&b, "- **Thread:** %d\n", d.ThreadID)
		fmt.Fprintf(&b, "- **Created:** %s\n", d.CreatedAt.UTC().Format("2006-01-02 15:04:05-07:00"))
		if d.Body != "" {
			preview := strings.ReplaceAll(truncateRunes(d.Body, 200), "\n", " ")
			fmt.Fprintf(&b, "- **Preview:** %s\n", preview)
		}
		b.WriteString("\n")
	}

	path := s.path("DRAFTS.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSecurityAlerts renders SECURITY_ALERTS.md: pending security
// events, newest-first.
func (s *Service) WriteSecurityAlerts(ctx context.Context) (string, error) {
	events, err := s.events.ListPending(ctx, maxSecurityAlerts)
	if err != nil {
		return "", err
	}

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")
	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: security_alerts\ngenerated: %q\npending_alerts: %d\n---\n", now, len(events))
	fmt.Fprintf(&b, "# Security Alerts\n*Updated: %s*\n\n**Pending alerts:** %d\n\n", now, len(events))

	for _, e := range events {
		fmt.Fprintf(&b, "### [%s] %s\n", e.Severity.Label(), e.EventType)
		fmt.Fprintf(&b, "- **Time:** %s\n", e.CreatedAt.UTC().Format("2006-01-02 15:04:05-07:00"))
		if e.EmailID != nil {
			fmt.Fprintf(&b, "- **Email ID:** %d\n", *e.EmailID)
		}
		if e.ThreadID != nil {
			fmt.Fprintf(&b, "- **Thread ID:** %d\n", *e.ThreadID)
		}
		quarantined := "No"
		if e.Quarantined {
			quarantined = "Yes"
		}
		fmt.Fprintf(&b, "- **Quarantined:** %s\n", quarantined)
		if len(e.Details) > 0 {
			fmt.Fprintf(&b, "- **Details:** %v\n", e.Details)
		}
		b.WriteString("\n")
	}

	path := s.path("SECURITY_ALERTS.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}
