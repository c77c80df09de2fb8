package sideeffect

import "errors"

// Dispatcher errors
var (
	ErrNoHandler      = errors.New("no handler registered for event kind")
	ErrInvalidPayload = errors.New("invalid event payload")
)
