package anomaly

import (
	"context"

	"github.com/ignite/ghostpost/internal/audit"
	"github.com/ignite/ghostpost/internal/domain"
)

// ContactRepository is the minimal contact lookup CheckNewRecipient needs.
type ContactRepository interface {
	// ContactExists returns true iff a Contact row matches the address
	// exactly (no case-folding — spec.md §9 notes this asymmetry with
	// the blocklist's case-insensitive match is intentional).
	ContactExists(ctx context.Context, address string) (bool, error)
}

// EventLogger records a SecurityEvent. Satisfied by *audit.Service.
type EventLogger interface {
	LogSecurityEvent(ctx context.Context, p audit.LogSecurityEventParams) (*domain.SecurityEvent, error)
}
