package composer

import (
	"context"

	"github.com/ignite/ghostpost/internal/domain"
)

// ThreadRepository loads a thread with its emails, ordered per
// domain.Email.Date().
type ThreadRepository interface {
	GetWithEmails(ctx context.Context, id int64) (*domain.Thread, error)
}

// ContactRepository looks up a known contact by address.
type ContactRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Contact, error)
}
