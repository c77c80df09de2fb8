package commission

import "errors"

// Service errors
var (
	ErrInvalidRule   = errors.New("invalid commission rule")
	ErrInvalidBounds = errors.New("invalid commission rule bounds")
)
