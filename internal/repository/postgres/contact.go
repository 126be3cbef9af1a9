package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/ghostpost/internal/domain"
)

// ContactRepo implements brief/composer's ContactRepository, the
// projector's ListRecent, and the anomaly detector's exact-match
// ContactExists.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo builds a ContactRepo backed by db.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `id, email, name, relationship_type, preferred_style, frequency, topics,
	last_interaction, notes`

func scanContact(row interface{ Scan(...any) error }) (*domain.Contact, error) {
	var c domain.Contact
	var name, relType, style, freq, notes sql.NullString
	var lastInteraction sql.NullTime
	var topics []string

	if err := row.Scan(
		&c.ID, &c.Email, &name, &relType, &style, &freq, pq.Array(&topics), &lastInteraction, &notes,
	); err != nil {
		return nil, err
	}

	c.Name = name.String
	c.RelationshipType = relType.String
	c.PreferredStyle = style.String
	c.Frequency = freq.String
	c.Topics = topics
	c.Notes = notes.String
	if lastInteraction.Valid {
		v := lastInteraction.Time
		c.LastInteraction = &v
	}
	return &c, nil
}

// FindByEmail returns (nil, nil) when no contact matches, exact address
// match.
func (r *ContactRepo) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = $1`, email)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact by email: %w", err)
	}
	return c, nil
}

// ContactExists is the anomaly detector's new-recipient check: exact
// match, no case-folding (spec.md §9).
func (r *ContactRepo) ContactExists(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contacts WHERE email = $1)`, address,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("contact exists: %w", err)
	}
	return exists, nil
}

// ListRecent returns contacts ordered by last_interaction desc, capped at
// limit.
func (r *ContactRepo) ListRecent(ctx context.Context, limit int) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		ORDER BY last_interaction DESC NULLS LAST
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
