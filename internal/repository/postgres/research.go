package postgres

import (
	"context"

	"github.com/ignite/ghostpost/internal/contextfiles"
)

// ResearchRepo implements contextfiles.ResearchRepository. The outreach
// research/campaign pipeline it would otherwise read from is out of
// scope, so ListActiveCampaigns always returns an empty list rather than
// querying a table this codebase never writes to — RESEARCH.md is
// expected to render as "no active campaigns" until that pipeline exists.
type ResearchRepo struct{}

// NewResearchRepo builds a no-op ResearchRepo.
func NewResearchRepo() *ResearchRepo { return &ResearchRepo{} }

// ListActiveCampaigns always returns an empty slice.
func (r *ResearchRepo) ListActiveCampaigns(ctx context.Context, limit int) ([]contextfiles.ResearchCampaign, error) {
	return nil, nil
}
