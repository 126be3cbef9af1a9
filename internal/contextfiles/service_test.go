package contextfiles

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubThreads struct {
	byID map[int64]domain.Thread
}

func (s *stubThreads) CountByState(ctx context.Context) (map[domain.ThreadState]int, error) {
	out := map[domain.ThreadState]int{}
	for _, t := range s.byID {
		out[t.State]++
	}
	return out, nil
}

func (s *stubThreads) CountUnreadEmails(ctx context.Context) (int, error) {
	n := 0
	for _, t := range s.byID {
		n += t.UnreadCount()
	}
	return n, nil
}

func (s *stubThreads) LastSyncAt(ctx context.Context) (*time.Time, error) {
	var max *time.Time
	for _, t := range s.byID {
		for _, e := range t.Emails {
			if max == nil || e.ReceivedAt.After(*max) {
				r := e.ReceivedAt
				max = &r
			}
		}
	}
	return max, nil
}

func (s *stubThreads) ListNeedsAttention(ctx context.Context, now time.Time, limit int) ([]domain.Thread, error) {
	var out []domain.Thread
	for _, t := range s.byID {
		if t.State == domain.ThreadArchived {
			continue
		}
		if t.Priority == domain.PriorityCritical || t.Priority == domain.PriorityHigh || t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubThreads) ListGoalInProgress(ctx context.Context) ([]domain.Thread, error) {
	var out []domain.Thread
	for _, t := range s.byID {
		if t.GoalStatus == domain.GoalInProgress {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubThreads) ListWithGoal(ctx context.Context) ([]domain.Thread, error) {
	var out []domain.Thread
	for _, t := range s.byID {
		if t.Goal != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubThreads) ListNonArchived(ctx context.Context, limit int) ([]domain.Thread, error) {
	var out []domain.Thread
	for _, t := range s.byID {
		if t.State != domain.ThreadArchived {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubThreads) ListAllWithEmails(ctx context.Context) ([]domain.Thread, error) {
	var out []domain.Thread
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out, nil
}

func (s *stubThreads) GetWithEmails(ctx context.Context, id int64) (*domain.Thread, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type stubContacts struct{ list []domain.Contact }

func (s *stubContacts) ListRecent(ctx context.Context, limit int) ([]domain.Contact, error) {
	return s.list, nil
}

type stubDrafts struct{ list []domain.Draft }

func (s *stubDrafts) ListPending(ctx context.Context) ([]domain.Draft, error) { return s.list, nil }
func (s *stubDrafts) CountPending(ctx context.Context) (int, error)          { return len(s.list), nil }

type stubEvents struct{ list []domain.SecurityEvent }

func (s *stubEvents) ListPending(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	return s.list, nil
}
func (s *stubEvents) CountPending(ctx context.Context) (int, error) { return len(s.list), nil }
func (s *stubEvents) CountQuarantined(ctx context.Context) (int, error) {
	n := 0
	for _, e := range s.list {
		if e.Quarantined {
			n++
		}
	}
	return n, nil
}

type stubActivity struct{}

func (stubActivity) CountEmailsReceivedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}
func (stubActivity) CountEmailsSentSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}
func (stubActivity) CountAuditActionSince(ctx context.Context, actionType string, since time.Time) (int, error) {
	return 0, nil
}

type stubOutcomes struct{ list []domain.ThreadOutcome }

func (s *stubOutcomes) ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.ThreadOutcome, error) {
	return s.list, nil
}
func (s *stubOutcomes) CountTotal(ctx context.Context) (int, error) { return len(s.list), nil }
func (s *stubOutcomes) ThreadSubject(ctx context.Context, threadID int64) (string, error) {
	return "", nil
}

type stubResearch struct{}

func (stubResearch) ListActiveCampaigns(ctx context.Context, limit int) ([]ResearchCampaign, error) {
	return nil, nil
}

type stubSettings struct{ m map[string]string }

func (s *stubSettings) Get(key string) (string, bool) { v, ok := s.m[key]; return v, ok }
func (s *stubSettings) Set(key, value string) error   { s.m[key] = value; return nil }

type stubAlertCleaner struct{ called bool }

func (s *stubAlertCleaner) CleanupAlerts() (int, error) { s.called = true; return 0, nil }

func newTestService(t *testing.T, threads map[int64]domain.Thread) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	fixedNow := func() time.Time { return time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC) }
	return New(dir,
		&stubThreads{byID: threads},
		&stubContacts{},
		&stubDrafts{},
		&stubEvents{},
		stubActivity{},
		&stubOutcomes{},
		stubResearch{},
		&stubSettings{m: map[string]string{}},
		&stubAlertCleaner{},
		fixedNow,
	), dir
}

func TestWriteSystemBriefRenders(t *testing.T) {
	svc, dir := newTestService(t, map[int64]domain.Thread{
		1: {ID: 1, Subject: "Hello", State: domain.ThreadActive, Priority: domain.PriorityHigh},
	})
	path, err := svc.WriteSystemBrief(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "SYSTEM_BRIEF.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# System Brief")
	assert.Contains(t, string(content), "#1")
}

func TestBuildThreadMarkdownIsolatesReceivedBody(t *testing.T) {
	thread := domain.Thread{
		ID: 7, Subject: "Test", State: domain.ThreadActive,
		Emails: []domain.Email{
			{ID: 1, FromAddress: "a@b.com", BodyPlain: "hello there", Sent: false},
			{ID: 2, FromAddress: "me@ghostpost", BodyPlain: "reply body", Sent: true},
		},
	}
	svc, _ := newTestService(t, nil)
	out := svc.buildThreadMarkdown(thread)

	assert.Contains(t, out, "=== UNTRUSTED EMAIL CONTENT START ===\nhello there\n=== UNTRUSTED EMAIL CONTENT END ===")
	assert.NotContains(t, out, "=== UNTRUSTED EMAIL CONTENT START ===\nreply body")
}

func TestBuildThreadMarkdownTruncatesLongBody(t *testing.T) {
	longBody := strings.Repeat("x", maxBodyChars+500)
	thread := domain.Thread{
		ID: 9, State: domain.ThreadActive,
		Emails: []domain.Email{{ID: 1, FromAddress: "a@b.com", BodyPlain: longBody, Sent: false}},
	}
	svc, _ := newTestService(t, nil)
	out := svc.buildThreadMarkdown(thread)

	assert.Contains(t, out, "[truncated — full body: 10500 chars]")
}

func TestAvailableActionsArchivedThreadOffersRestore(t *testing.T) {
	lines := availableActions(domain.Thread{ID: 3, State: domain.ThreadArchived})
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Restore to active")
	assert.NotContains(t, joined, "Archive thread")
}

func TestAvailableActionsGoalInProgressOffersCheckAndMet(t *testing.T) {
	lines := availableActions(domain.Thread{ID: 4, Goal: "close deal", GoalStatus: domain.GoalInProgress})
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Check goal completion")
	assert.Contains(t, joined, "Mark goal met")
}

func TestAvailableActionsNoGoalOffersSetGoal(t *testing.T) {
	lines := availableActions(domain.Thread{ID: 5})
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Set goal")
}

func TestWriteThreadFilesSweepsOrphans(t *testing.T) {
	svc, dir := newTestService(t, map[int64]domain.Thread{
		1: {ID: 1, State: domain.ThreadActive},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "threads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "threads", "99.md"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "threads", "notanumber.md"), []byte("keep me"), 0o644))

	_, err := svc.WriteThreadFiles(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "threads", "99.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "threads", "notanumber.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "threads", "1.md"))
	assert.NoError(t, err)
}

func TestWriteThreadFilesRoutesArchivedToArchiveDir(t *testing.T) {
	svc, dir := newTestService(t, map[int64]domain.Thread{
		1: {ID: 1, State: domain.ThreadArchived},
	})
	_, err := svc.WriteThreadFiles(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "threads", "archive", "1.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "threads", "1.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAllRunsInFixedOrderAndCleansAlerts(t *testing.T) {
	svc, dir := newTestService(t, map[int64]domain.Thread{
		1: {ID: 1, State: domain.ThreadActive},
	})
	paths, err := svc.WriteAll(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 10)
	assert.Equal(t, filepath.Join(dir, "SYSTEM_BRIEF.md"), paths[0])
	assert.Equal(t, filepath.Join(dir, "EMAIL_CONTEXT.md"), paths[1])
	assert.Equal(t, svc.threadsDir(), paths[2])
	assert.Equal(t, filepath.Join(dir, "COMPLETED_OUTCOMES.md"), paths[9])

	cleaner := svc.alertClean.(*stubAlertCleaner)
	assert.True(t, cleaner.called)
}

func TestWriteRulesRendersBlocklistFromSettings(t *testing.T) {
	svc, dir := newTestService(t, nil)
	svc.settings.(*stubSettings).m[domain.SettingBlocklist] = `["spam@bad.com"]`

	path, err := svc.WriteRules(context.Background())
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "spam@bad.com")
	assert.Equal(t, filepath.Join(dir, "RULES.md"), path)
}

func TestFormatSizeKBAndMB(t *testing.T) {
	assert.Equal(t, "1.0 KB", formatSize(1024))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
