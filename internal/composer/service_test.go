package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubThreads struct{ t *domain.Thread }

func (s *stubThreads) GetWithEmails(ctx context.Context, id int64) (*domain.Thread, error) {
	if s.t == nil || s.t.ID != id {
		return nil, nil
	}
	return s.t, nil
}

type stubContacts struct{ byEmail map[string]*domain.Contact }

func (s *stubContacts) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	return s.byEmail[email], nil
}

type stubSettings struct{ values map[string]string }

func (s *stubSettings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}
func (s *stubSettings) Set(key, value string) error {
	s.values[key] = value
	return nil
}

type stubCompleter struct {
	lastSystem, lastUser string
	body                 string
	err                  error
}

func (c *stubCompleter) Complete(ctx context.Context, system, userMessage string, maxTokens int, temperature float64) (string, error) {
	c.lastSystem, c.lastUser = system, userMessage
	if c.err != nil {
		return "", c.err
	}
	return c.body, nil
}

func sampleThread() *domain.Thread {
	now := time.Now()
	return &domain.Thread{
		ID: 7, Subject: "Pricing question", Goal: "close deal", Playbook: "sales",
		Emails: []domain.Email{
			{ID: 1, FromAddress: "client@corp.com", Subject: "Pricing question", BodyPlain: "What's the cost?", ReceivedAt: now.Add(-time.Hour)},
			{ID: 2, FromAddress: "me@ghostpost", Sent: true, Subject: "Re: Pricing question", BodyPlain: "Let me check.", ReceivedAt: now},
		},
	}
}

func TestGenerateReplyErrorsWhenLLMUnavailable(t *testing.T) {
	svc := New(&stubThreads{t: sampleThread()}, &stubContacts{}, &stubSettings{values: map[string]string{}}, nil)
	_, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
}

func TestGenerateReplyErrorsWhenThreadMissing(t *testing.T) {
	svc := New(&stubThreads{}, &stubContacts{}, &stubSettings{values: map[string]string{}}, &stubCompleter{body: "hi"})
	_, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestGenerateReplyErrorsWhenNoEmails(t *testing.T) {
	svc := New(&stubThreads{t: &domain.Thread{ID: 7}}, &stubContacts{}, &stubSettings{values: map[string]string{}}, &stubCompleter{body: "hi"})
	_, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	assert.ErrorIs(t, err, ErrNoEmails)
}

func TestGenerateReplyUsesSettingStyleAndAddsReSubject(t *testing.T) {
	completer := &stubCompleter{body: "  Sure, here is the pricing.  "}
	svc := New(&stubThreads{t: sampleThread()}, &stubContacts{byEmail: map[string]*domain.Contact{
		"client@corp.com": {Email: "client@corp.com", Name: "Jane", PreferredStyle: "casual"},
	}}, &stubSettings{values: map[string]string{domain.SettingReplyStyle: "formal"}}, completer)

	got, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Sure, here is the pricing.", got.Body)
	assert.Equal(t, "formal", got.Style)
	assert.Equal(t, "Re: Pricing question", got.Subject)
	assert.Equal(t, "client@corp.com", got.To)
	assert.Contains(t, completer.lastSystem, "formal")
	assert.Contains(t, completer.lastSystem, "Jane")
	assert.Contains(t, completer.lastUser, "Goal: close deal")
}

func TestGenerateReplyDoesNotDoublePrefixReSubject(t *testing.T) {
	thread := sampleThread()
	thread.Emails[1].Sent = false
	thread.Emails[1].FromAddress = "client@corp.com"
	completer := &stubCompleter{body: "ok"}
	svc := New(&stubThreads{t: thread}, &stubContacts{}, &stubSettings{values: map[string]string{}}, completer)

	got, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Re: Pricing question", got.Subject)
}

func TestGenerateReplyCustomStyleFallsBackWhenSettingMissing(t *testing.T) {
	completer := &stubCompleter{body: "ok"}
	svc := New(&stubThreads{t: sampleThread()}, &stubContacts{}, &stubSettings{values: map[string]string{domain.SettingReplyStyle: "custom"}}, completer)

	got, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Style)
	assert.Contains(t, completer.lastSystem, stylePrompts[defaultStyle])
}

func TestGenerateReplyPropagatesCompleterError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("boom")}
	svc := New(&stubThreads{t: sampleThread()}, &stubContacts{}, &stubSettings{values: map[string]string{}}, completer)

	_, err := svc.GenerateReply(context.Background(), 7, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGenerateReplyIncludesInstructions(t *testing.T) {
	completer := &stubCompleter{body: "ok"}
	instr := "offer a 10% discount"
	svc := New(&stubThreads{t: sampleThread()}, &stubContacts{}, &stubSettings{values: map[string]string{}}, completer)

	_, err := svc.GenerateReply(context.Background(), 7, &instr, nil)
	require.NoError(t, err)
	assert.Contains(t, completer.lastUser, "offer a 10% discount")
}
