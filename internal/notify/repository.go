package notify

import (
	"context"

	"github.com/ignite/ghostpost/internal/alertlog"
)

// AlertAppender is C10's write path.
type AlertAppender interface {
	AppendAlert(a alertlog.Alert) error
}

// ChangelogAppender is C11's write path.
type ChangelogAppender interface {
	Append(eventType, summary, severity string) error
}

// Publisher fans a notification out to subscribers. Satisfied by a thin
// wrapper over *redis.Client (see redis_publisher.go).
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
