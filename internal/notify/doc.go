// Package notify implements C9: the notification dispatcher and its
// per-event-type convenience wrappers (spec.md §4.C9).
//
// DispatchNotification gates delivery on a per-event-type setting,
// appends to the alert log (C10) and publishes to the "notification"
// Redis channel on delivery. Every wrapper except NotifyThreadComposed
// additionally appends a changelog (C11) heartbeat line regardless of
// whether delivery was gated off, matching original_source's behavior of
// logging activity even when the user has notifications disabled.
// NotifyThreadComposed never writes to the changelog, and NotifyNewEmail
// writes nothing at all for an urgency below high.
package notify
