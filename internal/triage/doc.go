// Package triage implements C8: the single operation an operator or
// agent polls to decide what to do next (spec.md §4.C8).
//
// GetTriageData fans out across threads, drafts, and security events,
// scores a candidate action per source, and returns the top-scoring
// slice alongside the parallel detail lists and summary counts the
// context projector and system brief also use.
package triage
