package schedule

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid transfer amount")
	ErrInvalidType         = errors.New("invalid schedule type")
	ErrSelfTransfer        = errors.New("self transfer not allowed")
	ErrPlannedDateRequired = errors.New("planned transfer requires a planned date")
	ErrNotFound            = errors.New("scheduled transfer not found")
)
