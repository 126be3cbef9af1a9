// Package contextfiles implements C12: the context projector that
// regenerates the markdown tree an external agent reads to orient
// itself (spec.md §4.C12).
//
// Every writer renders one file (or, for per-thread files, a set of
// files) from current DB state and writes it atomically via
// internal/pkg/atomicfile, so a concurrent reader never observes a
// partial file. WriteAll runs every writer in a fixed order;
// EMAIL_CONTEXT, which links to the per-thread file paths that
// WriteThreadFiles produces, is written just before those thread files.
package contextfiles
