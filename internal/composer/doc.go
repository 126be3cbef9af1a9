// Package composer implements C14: reply generation for a thread using
// the configured LLM completion interface and the operator's reply_style
// setting (spec.md §4.C14).
package composer
