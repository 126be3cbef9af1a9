// Package changelog implements C11: the CHANGELOG.md heartbeat log
// (spec.md §4.C11).
//
// Unlike C10's alert log, entries are never deduplicated — every append
// writes a new line. The file is capped at 100 entries, newest first,
// and rewritten atomically on every append.
package changelog
