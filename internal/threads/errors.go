package threads

import "errors"

// Sentinel errors for the thread state machine.
var (
	ErrNotFound          = errors.New("thread not found")
	ErrInvalidTransition = errors.New("invalid thread state transition")
)
