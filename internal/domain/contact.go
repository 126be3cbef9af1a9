package domain

import "time"

// Contact is a derived profile for one email address.
type Contact struct {
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email"`

	Name             string    `json:"name,omitempty" db:"name"`
	RelationshipType string    `json:"relationship_type,omitempty" db:"relationship_type"`
	PreferredStyle   string    `json:"preferred_style,omitempty" db:"preferred_style"`
	Frequency        string    `json:"frequency,omitempty" db:"frequency"`
	Topics           []string  `json:"topics,omitempty" db:"topics"`
	LastInteraction  *time.Time `json:"last_interaction,omitempty" db:"last_interaction"`
	Notes            string    `json:"notes,omitempty" db:"notes"`
}
