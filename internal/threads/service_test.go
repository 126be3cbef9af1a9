package threads

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	threads map[int64]*domain.Thread
}

func newMemRepo(threads ...*domain.Thread) *memRepo {
	m := &memRepo{threads: map[int64]*domain.Thread{}}
	for _, t := range threads {
		m.threads[t.ID] = t
	}
	return m
}

func (m *memRepo) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	return m.threads[id], nil
}

func (m *memRepo) UpdateThread(ctx context.Context, t *domain.Thread) error {
	m.threads[t.ID] = t
	return nil
}

func (m *memRepo) ListWaitingReplyOverdue(ctx context.Context, now time.Time) ([]*domain.Thread, error) {
	var out []*domain.Thread
	for _, t := range m.threads {
		if t.State == domain.ThreadWaitingReply && t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestTriageNewToActive(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadNew})
	svc := New(repo, nil)

	got, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadActive, got.State)
}

func TestTriageNoopWhenNotNew(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadActive})
	svc := New(repo, nil)

	got, err := svc.Triage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadActive, got.State)
}

func TestMarkSentSchedulesFollowUp(t *testing.T) {
	fixed := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadActive})
	svc := New(repo, func() time.Time { return fixed })

	got, err := svc.MarkSent(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadWaitingReply, got.State)
	require.NotNil(t, got.NextFollowUpAt)
	assert.Equal(t, fixed.Add(3*24*time.Hour), *got.NextFollowUpAt)
}

func TestMarkSentFromTerminalRejected(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadGoalMet})
	svc := New(repo, nil)

	_, err := svc.MarkSent(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReplyReceivedWaitingToActive(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadWaitingReply})
	svc := New(repo, nil)

	got, err := svc.ReplyReceived(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadActive, got.State)
}

func TestReplyReceivedInvalidFromNew(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadNew})
	svc := New(repo, nil)

	_, err := svc.ReplyReceived(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGoalMetClearsFollowUp(t *testing.T) {
	next := time.Now().Add(time.Hour)
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadWaitingReply, NextFollowUpAt: &next})
	svc := New(repo, nil)

	got, err := svc.GoalMet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadGoalMet, got.State)
	assert.Nil(t, got.NextFollowUpAt)
}

func TestArchiveFromAnyState(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadFollowUp})
	svc := New(repo, nil)

	got, err := svc.Archive(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadArchived, got.State)
}

func TestRestoreArchivedToActive(t *testing.T) {
	repo := newMemRepo(&domain.Thread{ID: 1, State: domain.ThreadArchived})
	svc := New(repo, nil)

	got, err := svc.Restore(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadActive, got.State)
}

func TestRunFollowUpSchedulerAdvancesOverdueOnly(t *testing.T) {
	fixed := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	overdue := fixed.Add(-time.Hour)
	notYet := fixed.Add(time.Hour)
	repo := newMemRepo(
		&domain.Thread{ID: 1, State: domain.ThreadWaitingReply, NextFollowUpAt: &overdue},
		&domain.Thread{ID: 2, State: domain.ThreadWaitingReply, NextFollowUpAt: &notYet},
	)
	svc := New(repo, func() time.Time { return fixed })

	n, err := svc.RunFollowUpScheduler(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.ThreadFollowUp, repo.threads[1].State)
}

func TestGetThreadNotFound(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, nil)

	_, err := svc.Triage(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
