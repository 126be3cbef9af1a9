package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/ghostpost/internal/alertlog"
	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/logger"
)

const pubsubChannel = "notification"

// eventSettingMap maps event types to the setting key that gates them,
// grounded on original_source/src/engine/notifications.py's EVENT_SETTING_MAP.
var eventSettingMap = map[string]string{
	"new_high_urgency_email": domain.SettingNotifyNewEmail,
	"goal_met":               domain.SettingNotifyGoalMet,
	"security_alert":         domain.SettingNotifySecurityAlert,
	"injection_detected":     domain.SettingNotifySecurityAlert,
	"anomaly_detected":       domain.SettingNotifySecurityAlert,
	"email_quarantined":      domain.SettingNotifySecurityAlert,
	"draft_ready":            domain.SettingNotifyDraftReady,
	"stale_thread":           domain.SettingNotifyStaleThread,
	"commitment_detected":    domain.SettingNotifySecurityAlert,
	"thread_composed":        domain.SettingNotifyNewEmail,
}

// notificationDefaults is consulted when the settings store has no row
// for the mapped key; every notification defaults to enabled.
var notificationDefaults = map[string]bool{
	domain.SettingNotifyNewEmail:      true,
	domain.SettingNotifyGoalMet:       true,
	domain.SettingNotifySecurityAlert: true,
	domain.SettingNotifyDraftReady:    true,
	domain.SettingNotifyStaleThread:   true,
}

// Service implements DispatchNotification and its convenience wrappers.
type Service struct {
	settings  domain.SettingsStore
	alerts    AlertAppender
	changelog ChangelogAppender
	pub       Publisher
	now       func() time.Time
}

// New builds a Service. now defaults to time.Now when nil.
func New(settings domain.SettingsStore, alerts AlertAppender, changelog ChangelogAppender, pub Publisher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{settings: settings, alerts: alerts, changelog: changelog, pub: pub, now: now}
}

// ShouldNotify resolves the setting gating eventType. Unknown event
// types never notify.
func (s *Service) ShouldNotify(eventType string) bool {
	key, ok := eventSettingMap[eventType]
	if !ok {
		logger.Warn("unknown event type for notification check", "event_type", eventType)
		return false
	}
	if raw, ok := s.settings.Get(key); ok {
		return domain.ParseBool(raw)
	}
	return notificationDefaults[key]
}

type pubsubPayload struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	Severity  domain.Severity `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	ThreadID  *int64         `json:"thread_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// DispatchNotification is the entry point from spec.md §4.C9. It returns
// false without side effects when the event type's setting is disabled.
func (s *Service) DispatchNotification(ctx context.Context, eventType, title, message string, threadID *int64, severity domain.Severity, metadata map[string]any) (bool, error) {
	if !s.ShouldNotify(eventType) {
		return false, nil
	}
	if severity == "" {
		severity = domain.SeverityInfo
	}
	now := s.now()

	if err := s.alerts.AppendAlert(alertlog.Alert{
		Timestamp: now,
		EventType: eventType,
		Severity:  severity,
		Title:     title,
		Message:   message,
		ThreadID:  threadID,
	}); err != nil {
		return false, err
	}

	payload, err := json.Marshal(pubsubPayload{
		Timestamp: now,
		EventType: eventType,
		Severity:  severity,
		Title:     title,
		Message:   message,
		ThreadID:  threadID,
		Metadata:  metadata,
	})
	if err == nil {
		if pubErr := s.pub.Publish(ctx, pubsubChannel, payload); pubErr != nil {
			logger.Error("failed to publish notification event", "error", pubErr.Error())
		}
	}

	logger.Info("notification dispatched", "severity", string(severity), "title", title)
	return true, nil
}

// NotifyNewEmail reports a new high-urgency or critical email. It
// returns false immediately for any other urgency, matching
// original_source's caller-unguarded convenience shape.
func (s *Service) NotifyNewEmail(ctx context.Context, threadID int64, subject, sender, urgency string) (bool, error) {
	if urgency != "high" && urgency != "critical" {
		return false, nil
	}
	severity := domain.SeverityHigh
	if urgency == "critical" {
		severity = domain.SeverityCritical
	}
	if err := s.changelog.Append("new_email", fmt.Sprintf("Thread #%d %q from %s", threadID, subject, sender), strings.ToUpper(string(severity))); err != nil {
		return false, err
	}
	return s.DispatchNotification(ctx, "new_high_urgency_email",
		fmt.Sprintf("High-urgency email from %s", sender),
		fmt.Sprintf("Subject: %s. Urgency: %s. Requires attention.", subject, urgency),
		&threadID, severity, nil)
}

// NotifyGoalMet reports a thread's goal has been achieved.
func (s *Service) NotifyGoalMet(ctx context.Context, threadID int64, subject, goal string) (bool, error) {
	if err := s.changelog.Append("goal_met", fmt.Sprintf("Thread #%d goal achieved", threadID), "INFO"); err != nil {
		return false, err
	}
	return s.DispatchNotification(ctx, "goal_met",
		fmt.Sprintf("Goal achieved: %s", subject),
		fmt.Sprintf("Goal '%s' has been met.", goal),
		&threadID, domain.SeverityInfo, nil)
}

// NotifySecurityAlert reports a security event (injection, anomaly,
// quarantine, commitment). threadID may be nil.
func (s *Service) NotifySecurityAlert(ctx context.Context, threadID *int64, eventType, details string, severity domain.Severity) (bool, error) {
	if severity == "" {
		severity = domain.SeverityHigh
	}
	threadLabel := "no thread"
	if threadID != nil {
		threadLabel = fmt.Sprintf("thread #%d", *threadID)
	}
	if err := s.changelog.Append("security_alert", fmt.Sprintf("%s on %s", eventType, threadLabel), strings.ToUpper(string(severity))); err != nil {
		return false, err
	}
	return s.DispatchNotification(ctx, eventType,
		fmt.Sprintf("Security: %s", strings.ReplaceAll(eventType, "_", " ")),
		details, threadID, severity, nil)
}

// NotifyDraftReady reports an auto-generated draft waiting for approval.
func (s *Service) NotifyDraftReady(ctx context.Context, threadID, draftID int64, subject string) (bool, error) {
	if err := s.changelog.Append("draft_ready", fmt.Sprintf("Draft #%d for thread #%d pending approval", draftID, threadID), "INFO"); err != nil {
		return false, err
	}
	return s.DispatchNotification(ctx, "draft_ready",
		fmt.Sprintf("Draft ready: %s", subject),
		fmt.Sprintf("Draft #%d is waiting for approval.", draftID),
		&threadID, domain.SeverityInfo, nil)
}

// NotifyThreadComposed reports a newly composed outbound thread. Unlike
// the other wrappers it does not touch the changelog.
func (s *Service) NotifyThreadComposed(ctx context.Context, threadID int64, subject, to, goal string) (bool, error) {
	message := fmt.Sprintf("New email to %s. Subject: %s.", to, subject)
	if goal != "" {
		message += fmt.Sprintf(" Goal: %s.", goal)
	}
	return s.DispatchNotification(ctx, "thread_composed",
		fmt.Sprintf("Thread created: %s", subject),
		message, &threadID, domain.SeverityInfo, nil)
}

// NotifyStaleThread reports a thread with no reply for the configured
// number of days.
func (s *Service) NotifyStaleThread(ctx context.Context, threadID int64, subject string, days int) (bool, error) {
	if err := s.changelog.Append("stale_thread", fmt.Sprintf("Thread #%d no reply for %dd", threadID, days), "MEDIUM"); err != nil {
		return false, err
	}
	return s.DispatchNotification(ctx, "stale_thread",
		fmt.Sprintf("Stale thread: %s", subject),
		fmt.Sprintf("No reply received for %d days. Follow-up recommended.", days),
		&threadID, domain.SeverityMedium, nil)
}
