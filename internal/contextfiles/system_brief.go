package contextfiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

var systemBriefStateOrder = []domain.ThreadState{
	domain.ThreadNew, domain.ThreadActive, domain.ThreadWaitingReply,
	domain.ThreadFollowUp, domain.ThreadArchived,
}

// WriteSystemBrief renders SYSTEM_BRIEF.md, the agent's single-file
// orientation overview.
func (s *Service) WriteSystemBrief(ctx context.Context) (string, error) {
	now := s.now()
	cutoff24h := now.Add(-24 * time.Hour)

	stateCounts, err := s.threads.CountByState(ctx)
	if err != nil {
		return "", err
	}
	total := 0
	for _, n := range stateCounts {
		total += n
	}

	unread, err := s.threads.CountUnreadEmails(ctx)
	if err != nil {
		return "", err
	}
	pendingDrafts, err := s.drafts.CountPending(ctx)
	if err != nil {
		return "", err
	}
	lastSync, err := s.threads.LastSyncAt(ctx)
	if err != nil {
		return "", err
	}
	lastSyncStr := "never"
	if lastSync != nil {
		lastSyncStr = lastSync.UTC().Format("2006-01-02 15:04 UTC")
	}

	attention, err := s.threads.ListNeedsAttention(ctx, now, maxAttentionItems)
	if err != nil {
		return "", err
	}
	activeGoals, err := s.threads.ListGoalInProgress(ctx)
	if err != nil {
		return "", err
	}
	pendingAlerts, err := s.events.CountPending(ctx)
	if err != nil {
		return "", err
	}
	quarantined, err := s.events.CountQuarantined(ctx)
	if err != nil {
		return "", err
	}
	receivedIn, err := s.activity.CountEmailsReceivedSince(ctx, cutoff24h)
	if err != nil {
		return "", err
	}
	sentIn, err := s.activity.CountEmailsSentSince(ctx, cutoff24h)
	if err != nil {
		return "", err
	}
	draftsCreated, err := s.activity.CountAuditActionSince(ctx, "draft_created", cutoff24h)
	if err != nil {
		return "", err
	}
	draftsApproved, err := s.activity.CountAuditActionSince(ctx, "draft_approved", cutoff24h)
	if err != nil {
		return "", err
	}

	var stateParts []string
	for _, st := range systemBriefStateOrder {
		stateParts = append(stateParts, fmt.Sprintf("%s(%d)", st, stateCounts[st]))
	}
	nowStr := now.UTC().Format("2006-01-02 15:04 UTC")

	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: system_brief\ngenerated: %q\n", nowStr)
	fmt.Fprintf(&b, "threads: %d\nunread: %d\npending_drafts: %d\nneeds_attention: %d\nsecurity_alerts: %d\n---\n",
		total, unread, pendingDrafts, len(attention), pendingAlerts)
	fmt.Fprintf(&b, "# System Brief\n_Generated: %s_\n\n", nowStr)
	b.WriteString("## Status\n")
	fmt.Fprintf(&b, "- API: Running | DB: Connected | Last Sync: %s\n\n", lastSyncStr)
	b.WriteString("## Inbox\n")
	fmt.Fprintf(&b, "- Threads: %d | Unread: %d | Drafts Pending: %d\n", total, unread, pendingDrafts)
	fmt.Fprintf(&b, "- %s\n\n", strings.Join(stateParts, " "))

	b.WriteString("## Needs Attention\n| Thread | Subject | From | Why |\n|--------|---------|------|-----|\n")
	if len(attention) == 0 {
		b.WriteString("| — | No items need immediate attention | — | — |\n")
	}
	for _, t := range attention {
		sender := threadSender(t)
		subject := truncateRunes(orDefault(t.Subject, "(no subject)"), 50)
		var reasons []string
		if t.Priority == domain.PriorityCritical || t.Priority == domain.PriorityHigh {
			reasons = append(reasons, fmt.Sprintf("%s priority", strings.ToUpper(string(t.Priority))))
		}
		if t.IsOverdue(now) {
			reasons = append(reasons, "overdue follow-up")
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "attention needed")
		}
		fmt.Fprintf(&b, "| #%d | %s | %s | %s |\n", t.ID, subject, truncateRunes(sender, 40), strings.Join(reasons, ", "))
	}

	fmt.Fprintf(&b, "\n## Active Goals (%d)\n| Thread | Goal | Status |\n|--------|------|--------|\n", len(activeGoals))
	if len(activeGoals) == 0 {
		b.WriteString("| — | No active goals | — |\n")
	}
	for _, t := range activeGoals {
		status := orDefault(string(t.GoalStatus), "unknown")
		fmt.Fprintf(&b, "| #%d | %s | %s |\n", t.ID, truncateRunes(t.Goal, 60), status)
	}

	b.WriteString("\n## Security\n")
	fmt.Fprintf(&b, "- Pending alerts: %d | Quarantined: %d\n\n", pendingAlerts, quarantined)
	b.WriteString("## Recent Activity (last 24h)\n")
	fmt.Fprintf(&b, "- %d emails received, %d sent\n", receivedIn, sentIn)
	fmt.Fprintf(&b, "- %d drafts created, %d approved\n", draftsCreated, draftsApproved)

	path := s.path("SYSTEM_BRIEF.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// threadSender derives the primary counterparty for a thread: the first
// incoming email's sender, falling back to the first email's recipients.
func threadSender(t domain.Thread) string {
	for _, e := range t.Emails {
		if !e.Sent && e.FromAddress != "" {
			return e.FromAddress
		}
	}
	if len(t.Emails) > 0 {
		if to := t.Emails[0].ToAddresses.Normalize(); len(to) > 0 {
			return strings.Join(to, ", ")
		}
	}
	return "unknown"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
