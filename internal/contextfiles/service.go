package contextfiles

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
)

const (
	maxAttentionItems  = 5
	maxBodyChars       = 10000
	maxEmailContextLen = 50
	maxContactsListed  = 100
	maxSecurityAlerts  = 50
	maxResearchActive  = 20
	maxRecentOutcomes  = 20
	outcomesWindow     = 30 * 24 * time.Hour
)

// AlertCleaner is C10's maintenance pass, invoked as the last step of a
// full context refresh.
type AlertCleaner interface {
	CleanupAlerts() (int, error)
}

// Service renders the context file tree under Root.
type Service struct {
	Root string

	threads    ThreadRepository
	contacts   ContactRepository
	drafts     DraftRepository
	events     SecurityEventRepository
	activity   ActivityRepository
	outcomes   OutcomeRepository
	research   ResearchRepository
	settings   domain.SettingsStore
	alertClean AlertCleaner

	now func() time.Time
}

// New builds a Service writing under root. now defaults to time.Now when nil.
func New(
	root string,
	threads ThreadRepository,
	contacts ContactRepository,
	drafts DraftRepository,
	events SecurityEventRepository,
	activity ActivityRepository,
	outcomes OutcomeRepository,
	research ResearchRepository,
	settings domain.SettingsStore,
	alertClean AlertCleaner,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		Root: root, threads: threads, contacts: contacts, drafts: drafts,
		events: events, activity: activity, outcomes: outcomes, research: research,
		settings: settings, alertClean: alertClean, now: now,
	}
}

func (s *Service) path(name string) string {
	return filepath.Join(s.Root, name)
}

func (s *Service) threadsDir() string {
	return filepath.Join(s.Root, "threads")
}

func (s *Service) threadsArchiveDir() string {
	return filepath.Join(s.Root, "threads", "archive")
}

// WriteAll regenerates every context file in the fixed order spec.md
// §4.C12 requires: SYSTEM_BRIEF first, as the agent's primary
// orientation file, then EMAIL_CONTEXT, then the per-thread files that
// EMAIL_CONTEXT links to.
func (s *Service) WriteAll(ctx context.Context) ([]string, error) {
	var paths []string

	p, err := s.WriteSystemBrief(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteEmailContext(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteThreadFiles(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteContacts(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteRules(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteActiveGoals(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteDrafts(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteSecurityAlerts(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteResearch(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	p, err = s.WriteCompletedOutcomes(ctx)
	if err != nil {
		return nil, err
	}
	paths = append(paths, p)

	// ALERTS.md is append-based; a full refresh just trims stale/duplicate
	// entries across the whole file.
	if s.alertClean != nil {
		if _, err := s.alertClean.CleanupAlerts(); err != nil {
			return paths, err
		}
	}

	return paths, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// AlertLogPath is ALERTS.md's path under root, exposed so callers can
// build an *alertlog.Store rooted at the same context directory as the
// rest of the projector.
func AlertLogPath(root string) string {
	return filepath.Join(root, "ALERTS.md")
}

// ChangelogPath mirrors AlertLogPath for C11's CHANGELOG.md.
func ChangelogPath(root string) string {
	return filepath.Join(root, "CHANGELOG.md")
}
