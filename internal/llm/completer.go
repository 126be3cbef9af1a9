package llm

import "context"

// Completer sends a system/user prompt pair to a text-completion model
// and returns the generated text. Implementations own their own
// timeout and retry behavior.
type Completer interface {
	Complete(ctx context.Context, system, userMessage string, maxTokens int, temperature float64) (string, error)
}
