// Package api exposes the thin HTTP surface spec.md names as out of
// scope beyond a minimal operator interface: a health check, the C8
// triage snapshot, the C13 thread brief, a send-gated C5/C14
// reply-and-send endpoint, an email-ingested hook that runs the C2 scan
// and C7 reply transition, and an attachment-upload endpoint.
package api
