// Package alertlog implements C10: the ALERTS.md store (spec.md §4.C10).
//
// Entries are newest-first. AppendAlert silently skips writing when an
// identical (thread_id, message) pair already appears in the 20 most
// recent entries, and trims the file to the 50 most recent afterward.
// CleanupAlerts performs the same dedup/cap pass across the whole file,
// independent of any new entry.
package alertlog
