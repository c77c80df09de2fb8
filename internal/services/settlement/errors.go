package settlement

import "errors"

// Service errors. All abort the unit of work with no partial effect.
var (
	ErrInvalidAmount            = errors.New("invalid settlement amount")
	ErrInvalidType              = errors.New("invalid transaction type")
	ErrSelfTransferNotAllowed   = errors.New("self transfer not allowed")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrWalletNotFound           = errors.New("wallet not found")
	ErrWalletLocked             = errors.New("wallet is locked")
	ErrCommissionExceedsAmount  = errors.New("commission exceeds settlement amount")
)
