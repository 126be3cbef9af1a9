// Package sanitizer implements Layer 1 and Layer 2 of the safety
// pipeline: stripping dangerous markup out of inbound email bodies and
// wrapping untrusted content in isolation markers before it reaches an
// LLM prompt (spec.md §4.C1).
package sanitizer

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlCommentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	orphanCommentRe = regexp.MustCompile(`<!--?|-->`)
	scriptTagRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	eventHandlerRe  = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*("[^"]*"|'[^']*')`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// SanitizeHTML strips HTML comments, script/style blocks, and event-handler
// attributes from text, decodes entities, and collapses whitespace. An
// absent value returns the empty string.
func SanitizeHTML(text string) string {
	if text == "" {
		return ""
	}

	// Strip comments to a fixed point — handles nested/malformed comments.
	prev := ""
	for prev != text {
		prev = text
		text = htmlCommentRe.ReplaceAllString(text, "")
	}
	// Strip any residual orphaned comment delimiters.
	text = orphanCommentRe.ReplaceAllString(text, "")

	text = scriptTagRe.ReplaceAllString(text, "")
	text = styleTagRe.ReplaceAllString(text, "")
	text = eventHandlerRe.ReplaceAllString(text, "")

	text = html.UnescapeString(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// forbiddenPlainRe matches C0 controls (except tab/newline), DEL, and the
// Unicode bidi/zero-width/format characters that can be used to disguise
// injected instructions inside otherwise-plain text.
var forbiddenPlainRe = regexp.MustCompile(
	`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f` +
		`\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2066}-\x{2069}\x{FEFF}]`,
)

// SanitizePlain strips control characters and Unicode bidi/zero-width
// format characters from plain text, then trims. An absent value returns
// the empty string.
func SanitizePlain(text string) string {
	if text == "" {
		return ""
	}
	text = forbiddenPlainRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Isolation markers delimit untrusted email content in agent-facing
// markdown (spec.md GLOSSARY).
const (
	IsolationStart = "=== UNTRUSTED EMAIL CONTENT START ==="
	IsolationEnd   = "=== UNTRUSTED EMAIL CONTENT END ==="
)

// IsolateContent wraps text in the fixed isolation markers.
func IsolateContent(text string) string {
	return IsolationStart + "\n" + text + "\n" + IsolationEnd
}

// IsIsolated reports whether text carries both isolation markers.
func IsIsolated(text string) bool {
	return strings.Contains(text, IsolationStart) && strings.Contains(text, IsolationEnd)
}
