package contextfiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

// WriteResearch renders RESEARCH.md. The research/outreach pipeline
// itself is out of scope, so this is a thin listing of whatever
// campaigns a ResearchRepository implementation chooses to surface —
// id, company, and status only, matching the depth of COMPLETED_OUTCOMES.
func (s *Service) WriteResearch(ctx context.Context) (string, error) {
	var campaigns []ResearchCampaign
	if s.research != nil {
		var err error
		campaigns, err = s.research.ListActiveCampaigns(ctx, maxResearchActive)
		if err != nil {
			return "", err
		}
	}

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")
	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: research\ngenerated: %q\nactive: %d\n---\n", now, len(campaigns))
	fmt.Fprintf(&b, "# Ghost Research\n*Updated: %s*\n\n**Active:** %d\n\n", now, len(campaigns))

	if len(campaigns) == 0 {
		b.WriteString("No research campaigns yet.\n")
	} else {
		b.WriteString("## Active Campaigns\n| Campaign | Company | Status |\n|----------|---------|--------|\n")
		for _, c := range campaigns {
			fmt.Fprintf(&b, "| #%d | %s | %s |\n", c.ID, c.CompanyName, c.Status)
		}
	}

	path := s.path("RESEARCH.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCompletedOutcomes renders COMPLETED_OUTCOMES.md: the last 20
// thread outcomes from the past 30 days.
func (s *Service) WriteCompletedOutcomes(ctx context.Context) (string, error) {
	since := s.now().Add(-outcomesWindow)
	outcomes, err := s.outcomes.ListRecent(ctx, since, maxRecentOutcomes)
	if err != nil {
		return "", err
	}
	total, err := s.outcomes.CountTotal(ctx)
	if err != nil {
		return "", err
	}

	now := s.now().UTC().Format("2006-01-02 15:04 UTC")
	var b strings.Builder
	fmt.Fprintf(&b, "---\nschema_version: 1\ntype: completed_outcomes\ngenerated: %q\ntotal_outcomes: %d\nrecent_count: %d\n---\n",
		now, total, len(outcomes))
	fmt.Fprintf(&b, "# Completed Outcomes\n*Updated: %s*\n\n**Total outcomes:** %d | **Recent (30 days):** %d\n\n", now, total, len(outcomes))

	if len(outcomes) == 0 {
		b.WriteString("No outcomes recorded yet.\n")
	} else {
		b.WriteString("## Recent Outcomes\n| Thread | Subject | Type | Summary | Date |\n|--------|---------|------|---------|------|\n")
		for _, o := range outcomes {
			subject, err := s.outcomes.ThreadSubject(ctx, o.ThreadID)
			if err != nil {
				return "", err
			}
			if subject == "" {
				subject = "(unknown)"
			}
			date := "unknown"
			if !o.CreatedAt.IsZero() {
				date = o.CreatedAt.UTC().Format("2006-01-02")
			}
			fmt.Fprintf(&b, "| #%d | %s | %s | %s | %s |\n",
				o.ThreadID, truncateRunes(subject, 40), o.OutcomeType, truncateRunes(o.Summary, 60), date)
		}
	}

	path := s.path("COMPLETED_OUTCOMES.md")
	if err := atomicfile.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}
