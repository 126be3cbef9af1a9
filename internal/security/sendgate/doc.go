// Package sendgate implements C5: the single entry point every outbound
// send passes through before it reaches a mail provider (spec.md §4.C5).
//
// CheckSendAllowed composes the blocklist, C4's rate limiter, C3's
// commitment scanner, a sensitive-topic keyword scan, and the owning
// thread's security score average into one allow/deny decision. Reasons
// always block; warnings never do.
package sendgate
