package contextfiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
	"github.com/ignite/ghostpost/internal/security/sanitizer"
)

// buildThreadMarkdown renders a single thread (with its emails already
// loaded) to its per-thread markdown file contents.
func (s *Service) buildThreadMarkdown(t domain.Thread) string {
	nowStr := s.now().UTC().Format("2006-01-02T15:04:05Z")

	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: thread\nthread_id: %d\nstate: %s\ngenerated: %q\n---\n", t.ID, t.State, nowStr)
	fmt.Fprintf(&b, "# Thread #%d: %s\n\n## Metadata\n", t.ID, orDefault(t.Subject, "(no subject)"))

	fmt.Fprintf(&b, "- **State:** %s\n", t.State)
	if t.Category != "" {
		fmt.Fprintf(&b, "- **Category:** %s\n", t.Category)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, "- **Priority:** %s\n", t.Priority)
	}
	fmt.Fprintf(&b, "- **Security Score:** %g\n", t.SecurityScoreAvg)

	if participants := t.Participants(); len(participants) > 0 {
		fmt.Fprintf(&b, "- **Participants:** %s\n", strings.Join(participants, ", "))
	}
	if t.Goal != "" {
		statusSuffix := ""
		if t.GoalStatus != "" {
			statusSuffix = fmt.Sprintf(" [%s]", t.GoalStatus)
		}
		fmt.Fprintf(&b, "- **Goal:** %s%s\n", t.Goal, statusSuffix)
	}
	if t.Playbook != "" {
		fmt.Fprintf(&b, "- **Playbook:** %s\n", t.Playbook)
	}
	if t.NextFollowUpAt != nil {
		fmt.Fprintf(&b, "- **Follow-up:** %d days (next: %s)\n", t.FollowUpIntervalDays, t.NextFollowUpAt.UTC().Format("2006-01-02"))
	}
	b.WriteString("- **Full context:** context/EMAIL_CONTEXT.md\n")

	b.WriteString("\n## Summary\n")
	if t.Summary != "" {
		fmt.Fprintf(&b, "> %s\n", t.Summary)
	} else {
		b.WriteString("> No summary available.\n")
	}
	b.WriteString("\n---\n\n## Messages\n\n")

	sorted := make([]domain.Email, len(t.Emails))
	copy(sorted, t.Emails)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date().Before(sorted[j].Date()) })

	hasAnalysis := false
	for idx, e := range sorted {
		direction := "Received"
		if e.Sent {
			direction = "Sent"
		}
		fmt.Fprintf(&b, "### [%d] %s: %s\n", idx+1, direction, e.Date().UTC().Format("2006-01-02 15:04 UTC"))
		fmt.Fprintf(&b, "- **From:** %s\n", orDefault(e.FromAddress, "unknown"))
		if to := e.ToAddresses.Normalize(); len(to) > 0 {
			fmt.Fprintf(&b, "- **To:** %s\n", strings.Join(to, ", "))
		}
		b.WriteString("\n")

		var body string
		if !e.Sent {
			if e.BodyPlain != "" {
				body = sanitizer.SanitizePlain(e.BodyPlain)
			} else {
				body = sanitizer.SanitizeHTML(e.BodyHTML)
			}
			body = truncateWithNote(body)
			b.WriteString(sanitizer.IsolationStart + "\n")
			b.WriteString(body + "\n")
			b.WriteString(sanitizer.IsolationEnd + "\n")
		} else {
			if e.BodyPlain != "" {
				body = sanitizer.SanitizePlain(e.BodyPlain)
			}
			body = truncateWithNote(body)
			b.WriteString(body + "\n")
		}

		if len(e.Attachments) > 0 {
			b.WriteString("\n**Attachments:**\n")
			for _, a := range e.Attachments {
				fmt.Fprintf(&b, "- %s (%s)\n", orDefault(a.Filename, "unnamed"), formatSize(a.SizeBytes))
			}
		}
		b.WriteString("\n")

		if e.HasAnalysisFields() {
			hasAnalysis = true
		}
	}

	if hasAnalysis {
		b.WriteString("---\n\n## Analysis\n\n")
		for idx, e := range sorted {
			if !e.HasAnalysisFields() {
				continue
			}
			fmt.Fprintf(&b, "**[%d]**\n", idx+1)
			if e.Sentiment != "" {
				fmt.Fprintf(&b, "- **Sentiment:** %s\n", e.Sentiment)
			}
			if e.Urgency != "" {
				fmt.Fprintf(&b, "- **Urgency:** %s\n", e.Urgency)
			}
			if e.ActionRequired {
				b.WriteString("- **Action Required:** true\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("---\n\n")
	b.WriteString(strings.Join(availableActions(t), "\n"))
	b.WriteString("\n")

	return b.String()
}

func truncateWithNote(body string) string {
	r := []rune(body)
	if len(r) <= maxBodyChars {
		return body
	}
	return string(r[:maxBodyChars]) + fmt.Sprintf("\n[truncated — full body: %d chars]", len(r))
}

func formatSize(sizeBytes int64) string {
	const mib = 1024 * 1024
	if sizeBytes >= mib {
		return fmt.Sprintf("%.1f MB", float64(sizeBytes)/float64(mib))
	}
	return fmt.Sprintf("%.1f KB", float64(sizeBytes)/1024)
}

// availableActions renders the context-aware "## Available Actions"
// command cheatsheet for a thread.
func availableActions(t domain.Thread) []string {
	id := t.ID
	lines := []string{"## Available Actions", ""}

	lines = append(lines, "**Reply**")
	lines = append(lines, fmt.Sprintf("- Send reply: `ghostpost reply %d --body \"...\" --json`", id))
	lines = append(lines, fmt.Sprintf("- Save as draft: `ghostpost reply %d --body \"...\" --draft --json`", id))
	lines = append(lines, "")

	if t.State != domain.ThreadArchived {
		lines = append(lines, "**Archive**")
		lines = append(lines, fmt.Sprintf("- Archive thread: `ghostpost state %d ARCHIVED --json`", id))
	} else {
		lines = append(lines, "**Restore**")
		lines = append(lines, fmt.Sprintf("- Restore to active: `ghostpost state %d ACTIVE --json`", id))
	}
	lines = append(lines, "")

	if t.Goal == "" {
		lines = append(lines, "**Goal**")
		lines = append(lines, fmt.Sprintf("- Set goal: `ghostpost goal %d --goal \"...\" --criteria \"...\" --json`", id))
	} else if t.GoalStatus == domain.GoalInProgress {
		lines = append(lines, "**Goal**")
		lines = append(lines, fmt.Sprintf("- Check goal completion: `ghostpost goal %d --check --json`", id))
		lines = append(lines, fmt.Sprintf("- Mark goal met: `ghostpost goal %d --status met --json`", id))
	}
	lines = append(lines, "")

	if t.Playbook == "" {
		lines = append(lines, "**Playbook**")
		lines = append(lines, fmt.Sprintf("- Apply playbook: `ghostpost apply-playbook %d <name> --json`", id))
		lines = append(lines, "")
	}

	lines = append(lines, "**Auto-Reply**")
	if t.AutoReplyMode == "" || t.AutoReplyMode == domain.AutoReplyOff {
		lines = append(lines, fmt.Sprintf("- Enable draft mode: `ghostpost toggle %d --mode draft --json`", id))
	} else {
		lines = append(lines, fmt.Sprintf("- Disable auto-reply: `ghostpost toggle %d --mode off --json`", id))
	}

	return lines
}

func (s *Service) threadFilePath(t domain.Thread) string {
	dir := s.threadsDir()
	if t.State == domain.ThreadArchived {
		dir = s.threadsArchiveDir()
	}
	return filepath.Join(dir, fmt.Sprintf("%d.md", t.ID))
}

// WriteSingleThreadFile exports one thread to its markdown file,
// returning the written path.
func (s *Service) WriteSingleThreadFile(ctx context.Context, threadID int64) (string, error) {
	if err := ensureDir(s.threadsDir()); err != nil {
		return "", err
	}
	if err := ensureDir(s.threadsArchiveDir()); err != nil {
		return "", err
	}

	t, err := s.threads.GetWithEmails(ctx, threadID)
	if err != nil {
		return "", err
	}
	content := s.buildThreadMarkdown(*t)
	path := s.threadFilePath(*t)
	if err := atomicfile.WriteString(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// WriteThreadFiles exports every thread to its own markdown file in one
// pass, then sweeps both thread directories for orphaned integer-named
// .md files that no longer correspond to a written thread.
func (s *Service) WriteThreadFiles(ctx context.Context) (string, error) {
	if err := ensureDir(s.threadsDir()); err != nil {
		return "", err
	}
	if err := ensureDir(s.threadsArchiveDir()); err != nil {
		return "", err
	}

	threads, err := s.threads.ListAllWithEmails(ctx)
	if err != nil {
		return "", err
	}

	written := make(map[int64]bool, len(threads))
	for _, t := range threads {
		content := s.buildThreadMarkdown(t)
		path := s.threadFilePath(t)
		if err := atomicfile.WriteString(path, content); err != nil {
			return "", err
		}
		written[t.ID] = true
	}

	for _, dir := range []string{s.threadsDir(), s.threadsArchiveDir()} {
		sweepOrphans(dir, written)
	}

	return s.threadsDir(), nil
}

// sweepOrphans deletes every ".md" file in dir whose stem parses as an
// integer not present in written. Non-.md and non-integer-named files
// are left alone.
func sweepOrphans(dir string, written map[int64]bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		stem := strings.TrimSuffix(name, ".md")
		id, err := strconv.ParseInt(stem, 10, 64)
		if err != nil {
			continue
		}
		if written[id] {
			continue
		}
		_ = os.Remove(filepath.Join(dir, name))
	}
}
