package sendgate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSettings struct {
	m map[string]string
}

func (s *memSettings) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}
func (s *memSettings) Set(key, value string) error {
	s.m[key] = value
	return nil
}

type stubRates struct {
	count       int
	limited     bool
	err         error
	incremented []string
}

func (s *stubRates) CheckSendRate(ctx context.Context, actor string, limit int) (int, bool, error) {
	return s.count, s.limited, s.err
}

func (s *stubRates) IncrementSendRate(ctx context.Context, actor string) error {
	s.incremented = append(s.incremented, actor)
	return nil
}

type stubEvents struct {
	calls []audit.LogSecurityEventParams
}

func (s *stubEvents) LogSecurityEvent(ctx context.Context, p audit.LogSecurityEventParams) (*domain.SecurityEvent, error) {
	s.calls = append(s.calls, p)
	return &domain.SecurityEvent{EventType: p.EventType}, nil
}

type stubThreads struct {
	threads map[int64]*domain.Thread
}

func (s *stubThreads) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	return s.threads[id], nil
}

func TestCheckSendAllowedBlocklisted(t *testing.T) {
	settings := &memSettings{m: map[string]string{domain.SettingBlocklist: `["spam@bad.com"]`}}
	svc := New(settings, &stubRates{}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("SPAM@bad.com"), "Hello", "agent", nil)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	require.Len(t, d.Reasons, 1)
	assert.Contains(t, d.Reasons[0], "blocklist")
}

func TestCheckSendAllowedBlocklistPartialMatchDoesNotBlock(t *testing.T) {
	settings := &memSettings{m: map[string]string{domain.SettingBlocklist: `["a.com"]`}}
	svc := New(settings, &stubRates{}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("a@b.com"), "Hi", "agent", nil)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCheckSendAllowedRateLimited(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	events := &stubEvents{}
	svc := New(settings, &stubRates{count: 20, limited: true}, events, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("safe@example.com"), "Hello", "agent", nil)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	require.Len(t, d.Reasons, 1)
	assert.Regexp(t, "(?i)rate|limit", d.Reasons[0])
	assert.Contains(t, d.Reasons[0], "20/20")
	require.Len(t, events.calls, 1)
	assert.Equal(t, "rate_limit_exceeded", events.calls[0].EventType)
	assert.Equal(t, 20, events.calls[0].Details["count"])
}

func TestRecordSendIncrementsCounter(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	rates := &stubRates{}
	svc := New(settings, rates, &stubEvents{}, &stubThreads{}, 20)

	require.NoError(t, svc.RecordSend(context.Background(), "agent"))
	assert.Equal(t, []string{"agent"}, rates.incremented)
}

func TestCheckSendAllowedCommitmentWarning(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	svc := New(settings, &stubRates{}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("ok@x.com"),
		"I guarantee we will deliver by Friday. We will pay you $10,000.", "agent", nil)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.GreaterOrEqual(t, len(d.Warnings), 1)
	found := false
	for _, w := range d.Warnings {
		if strings.Contains(w, "commitment") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckSendAllowedEmptyBodyAllowedNoWarnings(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	svc := New(settings, &stubRates{}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("ok@x.com"), "   ", "agent", nil)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Warnings)
}

func TestCheckSendAllowedLowSecurityScoreWarning(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	tid := int64(7)
	threads := &stubThreads{threads: map[int64]*domain.Thread{
		7: {ID: 7, SecurityScoreAvg: 30},
	}}
	svc := New(settings, &stubRates{}, &stubEvents{}, threads, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("ok@x.com"), "Hello", "agent", &tid)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "security score")
}

func TestCheckSendAllowedSensitiveTopicFalsePositive(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	svc := New(settings, &stubRates{}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("ok@x.com"), "See you at the basketball court tonight", "agent", nil)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "court")
}

func TestCheckSendAllowedRateCheckErrorFailsClosed(t *testing.T) {
	settings := &memSettings{m: map[string]string{}}
	svc := New(settings, &stubRates{err: errors.New("redis down")}, &stubEvents{}, &stubThreads{}, 20)

	d, err := svc.CheckSendAllowed(context.Background(), domain.NewAddressList("ok@x.com"), "Hello", "agent", nil)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, []string{"rate limiter unavailable"}, d.Reasons)
}
