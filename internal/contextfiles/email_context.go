package contextfiles

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

// WriteEmailContext renders EMAIL_CONTEXT.md: up to 50 non-archived
// threads, newest activity first, each linking to its per-thread file.
func (s *Service) WriteEmailContext(ctx context.Context) (string, error) {
	threads, err := s.threads.ListNonArchived(ctx, maxEmailContextLen)
	if err != nil {
		return "", err
	}
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

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")

	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: email_context\ngenerated: %q\n", now)
	fmt.Fprintf(&b, "total_threads: %d\nactive_threads: %d\nunread: %d\n---\n", total, len(threads), unread)
	fmt.Fprintf(&b, "# Email Context\n*Updated: %s*\n\n", now)
	fmt.Fprintf(&b, "**Total threads:** %d | **Unread:** %d\n\n## Active Threads\n\n", total, unread)

	for _, t := range threads {
		priorityMarker := ""
		if t.Priority == domain.PriorityCritical || t.Priority == domain.PriorityHigh {
			priorityMarker = fmt.Sprintf(" **[%s]**", strings.ToUpper(string(t.Priority)))
		}
		securityNote := ""
		if t.SecurityScoreAvg < 50 {
			securityNote = " (LOW SECURITY SCORE)"
		}
		fmt.Fprintf(&b, "### [#%d] %s%s%s\n", t.ID, orDefault(t.Subject, "(no subject)"), priorityMarker, securityNote)
		fmt.Fprintf(&b, "- **State:** %s | **Category:** %s\n", t.State, orDefault(t.Category, "uncategorized"))
		fmt.Fprintf(&b, "- **From:** %s\n", threadSender(t))
		fmt.Fprintf(&b, "- **Emails:** %d\n", len(t.Emails))

		if t.AutoReplyMode != "" && t.AutoReplyMode != domain.AutoReplyOff {
			fmt.Fprintf(&b, "- **Auto-Reply:** %s\n", t.AutoReplyMode)
		}
		if t.NextFollowUpAt != nil {
			fmt.Fprintf(&b, "- **Follow-up:** %d days (next: %s)\n", t.FollowUpIntervalDays, t.NextFollowUpAt.UTC().Format("2006-01-02"))
		}
		if t.Summary != "" {
			fmt.Fprintf(&b, "- **Summary:** %s\n", t.Summary)
		}
		if t.Priority != "" {
			fmt.Fprintf(&b, "- **Priority:** %s\n", t.Priority)
		}
		lastActivity := "unknown"
		if !t.LastActivityAt.IsZero() {
			lastActivity = t.LastActivityAt.UTC().Format("2006-01-02 15:04:05-07:00")
		}
		fmt.Fprintf(&b, "- **Last activity:** %s\n", lastActivity)
		if t.Goal != "" {
			fmt.Fprintf(&b, "- **Goal:** %s [%s]\n", t.Goal, t.GoalStatus)
			if t.AcceptanceCriteria != "" {
				fmt.Fprintf(&b, "- **Criteria:** %s\n", t.AcceptanceCriteria)
			}
		}
		if t.Playbook != "" {
			fmt.Fprintf(&b, "- **Playbook:** %s\n", t.Playbook)
		}
		if t.Notes != "" {
			fmt.Fprintf(&b, "- **Notes:** %s\n", t.Notes)
		}

		threadDir := s.threadsDir()
		if t.State == domain.ThreadArchived {
			threadDir = s.threadsArchiveDir()
		}
		relPath, relErr := filepath.Rel(s.Root, filepath.Join(threadDir, fmt.Sprintf("%d.md", t.ID)))
		if relErr != nil {
			relPath = filepath.Join("threads", fmt.Sprintf("%d.md", t.ID))
		}
		fmt.Fprintf(&b, "- **Full thread:** `context/%s`\n\n", filepath.ToSlash(relPath))
	}

	path := s.path("EMAIL_CONTEXT.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}
