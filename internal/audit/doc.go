// Package audit implements C6: the security-event and audit-action log.
//
// Both LogSecurityEvent and LogAction are best-effort from the caller's
// perspective (spec.md §4.C6) — an RPC failure never blocks the
// initiating flow. This package returns errors normally; it is the
// callers (detectors, the send gate, the notification dispatcher) that
// choose to log-and-continue rather than propagate.
package audit
