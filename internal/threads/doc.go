// Package threads implements C7: the thread lifecycle state machine
// (spec.md §4.C7).
//
// Transitions are triggered by operations, never by time alone, except
// for the scheduler-driven WAITING_REPLY -> FOLLOW_UP edge. The service
// layer contains pure business logic and depends on the Repository
// interface defined in repository.go. It never imports database/sql
// directly.
package threads
