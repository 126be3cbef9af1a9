package composer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/llm"
)

// ErrThreadNotFound and friends are the soft-failure cases the reply
// generator can hit; callers surface these as {"error": "..."} rather
// than treating them as unexpected failures.
var (
	ErrLLMUnavailable = errors.New("llm not available")
	ErrThreadNotFound = errors.New("thread not found")
	ErrNoEmails       = errors.New("no emails in thread")
)

const (
	defaultStyle  = "professional"
	maxConvEmails = 10
	maxBodyChars  = 1000
	replyMaxTokens = 1024
	replyTemperature = 0.4
)

var stylePrompts = map[string]string{
	"professional": "Write in a professional, clear business tone. Be polite but direct.",
	"casual":       "Write in a friendly, casual tone. Keep it warm and approachable.",
	"formal":       "Write in a formal, respectful tone. Use proper salutations and sign-offs.",
}

// ReplyResult is a generated reply, ready to draft or send.
type ReplyResult struct {
	Body    string
	Style   string
	Subject string
	To      string
}

// Service generates reply text for a thread.
type Service struct {
	threads    ThreadRepository
	contacts   ContactRepository
	settings   domain.SettingsStore
	completer  llm.Completer
}

// New builds a Service. completer may be nil, in which case
// GenerateReply always returns ErrLLMUnavailable.
func New(threads ThreadRepository, contacts ContactRepository, settings domain.SettingsStore, completer llm.Completer) *Service {
	return &Service{threads: threads, contacts: contacts, settings: settings, completer: completer}
}

// GenerateReply drafts a reply to thread_id's most recent email,
// optionally steered by instructions and a one-off style override.
func (s *Service) GenerateReply(ctx context.Context, threadID int64, instructions, styleOverride *string) (*ReplyResult, error) {
	if s.completer == nil {
		return nil, ErrLLMUnavailable
	}

	t, err := s.threads.GetWithEmails(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrThreadNotFound
	}
	if len(t.Emails) == 0 {
		return nil, ErrNoEmails
	}

	emails := make([]domain.Email, len(t.Emails))
	copy(emails, t.Emails)
	sort.SliceStable(emails, func(i, j int) bool { return emails[i].Date().Before(emails[j].Date()) })

	last := emails[len(emails)-1]
	recipient := last.FromAddress
	for i := len(emails) - 1; i >= 0; i-- {
		if !emails[i].Sent {
			recipient = emails[i].FromAddress
			break
		}
	}

	var contact *domain.Contact
	if recipient != "" && s.contacts != nil {
		contact, err = s.contacts.FindByEmail(ctx, recipient)
		if err != nil {
			return nil, err
		}
	}

	style, stylePrompt := s.resolveStyle(styleOverride)

	conv := buildConversation(emails)
	contactContext := buildContactContext(contact)

	system := buildSystemPrompt(stylePrompt, contactContext)
	userMsg := buildUserMessage(t, instructions, conv)

	body, err := s.completer.Complete(ctx, system, userMsg, replyMaxTokens, replyTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate reply for thread %d: %w", threadID, err)
	}
	body = strings.TrimSpace(body)

	subject := last.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	return &ReplyResult{Body: body, Style: style, Subject: subject, To: recipient}, nil
}

// resolveStyle returns the style name and its prompt fragment: an
// explicit override wins, then the reply_style setting, then
// defaultStyle. A "custom" style pulls its prompt from
// reply_style_custom, falling back to the professional prompt.
func (s *Service) resolveStyle(override *string) (string, string) {
	style := defaultStyle
	if override != nil && *override != "" {
		style = *override
	} else if s.settings != nil {
		if v, ok := s.settings.Get(domain.SettingReplyStyle); ok && v != "" {
			style = v
		}
	}

	if style == "custom" {
		if s.settings != nil {
			if v, ok := s.settings.Get(domain.SettingReplyStyleCustom); ok && v != "" {
				return style, v
			}
		}
		return style, stylePrompts[defaultStyle]
	}

	prompt, ok := stylePrompts[style]
	if !ok {
		prompt = stylePrompts[defaultStyle]
	}
	return style, prompt
}

func buildConversation(emails []domain.Email) string {
	start := len(emails) - maxConvEmails
	if start < 0 {
		start = 0
	}
	var lines []string
	for _, e := range emails[start:] {
		direction := "RECEIVED"
		if e.Sent {
			direction = "SENT"
		}
		body := truncateRunes(e.BodyPlain, maxBodyChars)
		lines = append(lines, fmt.Sprintf("[%s] From: %s (%s)\n%s", direction, e.FromAddress, e.Date(), body))
	}
	return strings.Join(lines, "\n---\n")
}

func buildContactContext(c *domain.Contact) string {
	if c == nil {
		return ""
	}
	name := c.Name
	if name == "" {
		name = "Unknown"
	}
	ctx := fmt.Sprintf("\nContact info: %s", name)
	if c.PreferredStyle != "" {
		ctx += fmt.Sprintf(", prefers %s communication", c.PreferredStyle)
	}
	if c.RelationshipType != "" && c.RelationshipType != "unknown" {
		ctx += fmt.Sprintf(", relationship: %s", c.RelationshipType)
	}
	return ctx
}

func buildSystemPrompt(stylePrompt, contactContext string) string {
	return fmt.Sprintf(`You are writing an email reply on behalf of Athena.
%s

RULES:
- Write ONLY the reply body text — no subject line, no headers, no "From:" lines
- Do NOT include greeting lines like "Dear..." unless the style is formal
- Keep it concise and on-topic
- Match the language of the conversation (if they write in Portuguese, reply in Portuguese)
- Sign off with just "Athena" if appropriate for the style
%s`, stylePrompt, contactContext)
}

func buildUserMessage(t *domain.Thread, instructions *string, conv string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread subject: %s\n", t.Subject)
	if t.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", t.Goal)
	}
	if t.Playbook != "" {
		fmt.Fprintf(&b, "Active playbook: %s\n", t.Playbook)
	}
	if instructions != nil && *instructions != "" {
		fmt.Fprintf(&b, "\nSpecific instructions: %s\n", *instructions)
	}
	fmt.Fprintf(&b, "\nConversation:\n%s\n\nWrite a reply to the most recent email.", conv)
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
