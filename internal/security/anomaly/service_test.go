package anomaly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, func() {
		client.Close()
		mr.Close()
	}
}

type stubContacts struct {
	known map[string]bool
}

func (s *stubContacts) ContactExists(ctx context.Context, address string) (bool, error) {
	return s.known[address], nil
}

type stubEvents struct {
	calls []audit.LogSecurityEventParams
	err   error
}

func (s *stubEvents) LogSecurityEvent(ctx context.Context, p audit.LogSecurityEventParams) (*domain.SecurityEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, p)
	return &domain.SecurityEvent{EventType: p.EventType}, nil
}

func TestCheckSendRateUnderLimit(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	svc := New(NewRedisRateStore(client), &stubContacts{}, &stubEvents{}, nil)
	count, limited, err := svc.CheckSendRate(context.Background(), "actor-1", 5)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 0, count)
}

func TestCheckSendRateAtLimitBlocks(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	fixed := time.Date(2026, 7, 31, 14, 0, 0, 0, time.UTC)
	svc := New(NewRedisRateStore(client), &stubContacts{}, &stubEvents{}, func() time.Time { return fixed })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.IncrementSendRate(ctx, "actor-2"))
	}

	count, limited, err := svc.CheckSendRate(ctx, "actor-2", 5)
	require.NoError(t, err)
	assert.True(t, limited, "count == limit must block")
	assert.Equal(t, 5, count)
}

func TestIncrementSendRateSetsTTLOnlyOnce(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fixed := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	svc := New(NewRedisRateStore(client), &stubContacts{}, &stubEvents{}, func() time.Time { return fixed })

	ctx := context.Background()
	require.NoError(t, svc.IncrementSendRate(ctx, "actor-3"))

	key := bucketKey("actor-3", fixed)
	ttl := mr.TTL(key)
	assert.True(t, ttl > 0, "TTL must be set after first increment")

	mr.SetTTL(key, 0)
	require.NoError(t, svc.IncrementSendRate(ctx, "actor-3"))
	assert.Equal(t, time.Duration(0), mr.TTL(key), "TTL must not be reset on later increments")
}

func TestCheckNewRecipientKnown(t *testing.T) {
	svc := New(nil, &stubContacts{known: map[string]bool{"a@x.com": true}}, &stubEvents{}, nil)
	isNew, err := svc.CheckNewRecipient(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestCheckNewRecipientIsCaseSensitive(t *testing.T) {
	svc := New(nil, &stubContacts{known: map[string]bool{"a@x.com": true}}, &stubEvents{}, nil)
	isNew, err := svc.CheckNewRecipient(context.Background(), "A@x.com")
	require.NoError(t, err)
	assert.True(t, isNew, "contact lookup must be exact-match, no case folding")
}

func TestCheckAnomaliesLogsOnlyOnRateLimit(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	fixed := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	events := &stubEvents{}
	svc := New(NewRedisRateStore(client), &stubContacts{known: map[string]bool{}}, events, func() time.Time { return fixed })

	ctx := context.Background()
	result, err := svc.CheckAnomalies(ctx, "new@example.com", "actor-4", 10)
	require.NoError(t, err)
	assert.True(t, result.NewRecipient)
	assert.False(t, result.RateLimited)
	assert.Empty(t, events.calls, "a new recipient alone must not emit a security event")

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.IncrementSendRate(ctx, "actor-4"))
	}
	result, err = svc.CheckAnomalies(ctx, "new@example.com", "actor-4", 3)
	require.NoError(t, err)
	assert.True(t, result.RateLimited)
	require.Len(t, events.calls, 1)
	assert.Equal(t, "rate_limit_exceeded", events.calls[0].EventType)
	assert.Equal(t, domain.SeverityHigh, events.calls[0].Severity)
	assert.Equal(t, 3, events.calls[0].Details["count"])
}

func TestCheckAnomaliesPropagatesLoggerError(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	fixed := time.Date(2026, 7, 31, 11, 0, 0, 0, time.UTC)
	svc := New(NewRedisRateStore(client), &stubContacts{}, &stubEvents{err: errors.New("db down")}, func() time.Time { return fixed })

	ctx := context.Background()
	require.NoError(t, svc.IncrementSendRate(ctx, "actor-5"))
	_, err := svc.CheckAnomalies(ctx, "x@y.com", "actor-5", 1)
	assert.Error(t, err)
}
