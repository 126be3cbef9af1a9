package domain

import "strings"

// Well-known setting keys consumed by the core (spec.md §6).
const (
	SettingReplyStyle           = "reply_style"
	SettingReplyStyleCustom     = "reply_style_custom"
	SettingBlocklist            = "blocklist"
	SettingNeverAutoReply       = "never_auto_reply"
	SettingNotifyNewEmail       = "notification_new_email"
	SettingNotifyGoalMet        = "notification_goal_met"
	SettingNotifySecurityAlert  = "notification_security_alert"
	SettingNotifyDraftReady     = "notification_draft_ready"
	SettingNotifyStaleThread    = "notification_stale_thread"
	SettingDefaultFollowUpDays  = "default_follow_up_days"
)

// SettingsStore is the key/value configuration contract (spec.md §6).
// Some keys hold JSON-encoded lists, which each consumer decodes itself;
// ParseBool below gives callers the shared boolean parsing rule.
type SettingsStore interface {
	Get(key string) (value string, ok bool)
	Set(key, value string) error
}

// ParseBool applies spec.md §6's case-insensitive true|1|yes rule.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
