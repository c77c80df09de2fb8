package statement

import "errors"

// Service errors
var (
	ErrWalletNotFound = errors.New("wallet not found")
)
