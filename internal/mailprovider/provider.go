package mailprovider

import "context"

// Provider sends one plain-text email. Implementations own retry and
// timeout behavior.
type Provider interface {
	Send(ctx context.Context, from, to, subject, body string) error
}
