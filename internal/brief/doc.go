// Package brief implements C13: a fixed-field-order markdown brief
// rendered for one thread, for an external agent deciding what to do
// next (spec.md §4.C13).
package brief
