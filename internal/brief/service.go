package brief

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
)

// stateActionLabels gives the primary Agent Instructions action for
// each thread state, grounded on original_source's _STATE_ACTION_LABELS.
var stateActionLabels = map[domain.ThreadState]string{
	domain.ThreadNew:          "Triage this thread — it has not been acted on yet",
	domain.ThreadActive:       "This thread is active — monitor and respond as needed",
	domain.ThreadWaitingReply: "Wait for reply (WAITING_REPLY state)",
	domain.ThreadFollowUp:     "Send a follow-up — the deadline has passed with no reply",
	domain.ThreadGoalMet:      "Goal has been met — no further action required",
	domain.ThreadArchived:     "Thread is archived — no action needed",
}

var autoReplyLabels = map[domain.AutoReplyMode]string{
	domain.AutoReplyOff:   "Do not send replies automatically — notify user instead",
	domain.AutoReplyDraft: "Create draft for approval before sending",
	domain.AutoReplyAuto:  "Send replies automatically without approval",
}

// Service generates brief text for a thread.
type Service struct {
	threads    ThreadRepository
	contacts   ContactRepository
	ownAddress string
}

// New builds a Service. ownAddress is excluded when collecting the
// "other participant" a contact profile is looked up for.
func New(threads ThreadRepository, contacts ContactRepository, ownAddress string) *Service {
	return &Service{threads: threads, contacts: contacts, ownAddress: ownAddress}
}

// GenerateBrief renders thread_id's brief, or nil if the thread is
// missing or has no emails.
func (s *Service) GenerateBrief(ctx context.Context, threadID int64) (*string, error) {
	t, err := s.threads.GetWithEmails(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t == nil || len(t.Emails) == 0 {
		return nil, nil
	}

	emails := make([]domain.Email, len(t.Emails))
	copy(emails, t.Emails)
	sort.SliceStable(emails, func(i, j int) bool { return emails[i].Date().Before(emails[j].Date()) })

	participants := t.Participants()

	var otherParticipants []string
	for _, p := range participants {
		if p != s.ownAddress {
			otherParticipants = append(otherParticipants, p)
		}
	}

	var contactInfo string
	if len(otherParticipants) > 0 && s.contacts != nil {
		c, err := s.contacts.FindByEmail(ctx, otherParticipants[0])
		if err != nil {
			return nil, err
		}
		if c != nil {
			var parts []string
			if c.Name != "" {
				parts = append(parts, c.Name)
			}
			if c.RelationshipType != "" && c.RelationshipType != "unknown" {
				parts = append(parts, "Relationship: "+c.RelationshipType)
			}
			if c.PreferredStyle != "" {
				parts = append(parts, fmt.Sprintf("Prefers %s emails", c.PreferredStyle))
			}
			if c.Frequency != "" {
				parts = append(parts, fmt.Sprintf("Communicates %s", c.Frequency))
			}
			contactInfo = strings.Join(parts, ". ")
		}
	}

	last := emails[len(emails)-1]
	lastDirection := orDefault(last.FromAddress, "Unknown")
	if last.Sent {
		lastDirection = "You"
	}
	lastDate := "Unknown"
	if !last.Date().IsZero() {
		lastDate = last.Date().Format("Jan 02")
	}
	lastSnippet := strings.TrimSpace(strings.ReplaceAll(truncateRunes(last.BodyPlain, 200), "\n", " "))

	var recentSentiments []string
	start := len(emails) - 3
	if start < 0 {
		start = 0
	}
	for _, e := range emails[start:] {
		if e.Sentiment != "" {
			recentSentiments = append(recentSentiments, e.Sentiment)
		}
	}
	sentimentStr := "unknown"
	if len(recentSentiments) > 0 {
		sentimentStr = strings.Join(recentSentiments, ", ")
	}

	followUpDays := t.FollowUpIntervalDays
	if followUpDays == 0 {
		followUpDays = 3
	}
	var followUpDisplay string
	if t.NextFollowUpAt != nil {
		followUpDisplay = fmt.Sprintf("%d days (next: %s)", followUpDays, t.NextFollowUpAt.Format("2006-01-02"))
	} else {
		followUpDisplay = fmt.Sprintf("%d days (not scheduled)", followUpDays)
	}

	priority := "unscored"
	if t.Priority != "" {
		priority = string(t.Priority)
	}
	security := "unscored/100"
	if t.SecurityScoreAvg != 0 {
		security = fmt.Sprintf("%g/100", t.SecurityScoreAvg)
	}

	lines := []string{
		fmt.Sprintf("## Thread Brief: %s", orDefault(t.Subject, "(no subject)")),
		fmt.Sprintf("- **Thread ID:** %d", t.ID),
		fmt.Sprintf("- **Participants:** %s", strings.Join(participants, ", ")),
		fmt.Sprintf("- **State:** %s", t.State),
		fmt.Sprintf("- **Priority:** %s | **Sentiment:** %s | **Security:** %s", priority, sentimentStr, security),
	}

	if t.Category != "" {
		lines = append(lines, fmt.Sprintf("- **Category:** %s", t.Category))
	}
	if t.Summary != "" {
		lines = append(lines, fmt.Sprintf("- **Summary:** %s", t.Summary))
	}

	if t.Goal != "" {
		lines = append(lines, fmt.Sprintf("- **Goal:** %s", t.Goal))
		if t.AcceptanceCriteria != "" {
			lines = append(lines, fmt.Sprintf("- **Acceptance Criteria:** %s", t.AcceptanceCriteria))
		}
		if t.GoalStatus != "" {
			lines = append(lines, fmt.Sprintf("- **Goal Status:** %s", t.GoalStatus))
		}
	}

	if t.Playbook != "" {
		lines = append(lines, fmt.Sprintf("- **Playbook:** %s", t.Playbook))
	}

	autoReply := t.AutoReplyMode
	if autoReply == "" {
		autoReply = domain.AutoReplyOff
	}
	lines = append(lines, fmt.Sprintf("- **Auto-Reply:** %s", autoReply))
	lines = append(lines, fmt.Sprintf("- **Follow-up:** %s", followUpDisplay))
	lines = append(lines, fmt.Sprintf("- **Last message:** %s (%s) — %q", lastDirection, lastDate, lastSnippet))
	lines = append(lines, fmt.Sprintf("- **Email count:** %d", len(emails)))

	if contactInfo != "" {
		lines = append(lines, fmt.Sprintf("- **Contact:** %s", contactInfo))
	}
	if t.Notes != "" {
		lines = append(lines, fmt.Sprintf("- **Notes:** %s", t.Notes))
	}

	lines = append(lines, "")
	lines = append(lines, buildAgentInstructions(*t))

	brief := strings.Join(lines, "\n")
	return &brief, nil
}

// buildAgentInstructions renders the trailing "## Agent Instructions"
// section: state drives the primary action, playbook/auto-reply/
// follow-up/goal drive the supporting lines. Follow-up guidance is
// suppressed in terminal states (GOAL_MET, ARCHIVED) since there is
// nothing left to schedule.
func buildAgentInstructions(t domain.Thread) string {
	lines := []string{"## Agent Instructions"}

	actionLabel, ok := stateActionLabels[t.State]
	if !ok {
		actionLabel = fmt.Sprintf("Handle thread (state: %s)", t.State)
	}
	lines = append(lines, fmt.Sprintf("- **Action:** %s", actionLabel))

	if t.Playbook != "" {
		lines = append(lines, fmt.Sprintf("- **Playbook:** Follow `%s` template", t.Playbook))
	}

	autoReply := t.AutoReplyMode
	if autoReply == "" {
		autoReply = domain.AutoReplyOff
	}
	replyLabel, ok := autoReplyLabels[autoReply]
	if !ok {
		replyLabel = fmt.Sprintf("Auto-reply mode: %s", autoReply)
	}
	lines = append(lines, fmt.Sprintf("- **Auto-reply:** %s", replyLabel))

	if !t.State.IsTerminal() {
		if t.NextFollowUpAt != nil {
			dateStr := t.NextFollowUpAt.Format("2006-01-02")
			if t.State == domain.ThreadFollowUp {
				lines = append(lines, fmt.Sprintf("- **Follow-up:** Overdue — send follow-up now (was due %s)", dateStr))
			} else {
				lines = append(lines, fmt.Sprintf("- **Follow-up:** If no reply by %s, send a follow-up", dateStr))
			}
		} else {
			days := t.FollowUpIntervalDays
			if days == 0 {
				days = 3
			}
			lines = append(lines, fmt.Sprintf("- **Follow-up:** Schedule check every %d days", days))
		}
	}

	if t.Goal != "" && t.GoalStatus == domain.GoalInProgress {
		criteriaHint := ""
		if t.AcceptanceCriteria != "" {
			criteriaHint = fmt.Sprintf(" (%s)", t.AcceptanceCriteria)
		}
		lines = append(lines, fmt.Sprintf("- **Goal check:** When reply received, evaluate whether the goal is met%s", criteriaHint))
	} else if t.Goal != "" && t.GoalStatus == domain.GoalMet {
		lines = append(lines, "- **Goal check:** Goal already met — no further evaluation needed")
	}

	return strings.Join(lines, "\n")
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
