package funding

import "errors"

// Service errors
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrRequestNotFound   = errors.New("request not found")
	ErrAlreadyProcessed  = errors.New("request already processed")
	ErrUnauthorizedActor = errors.New("request does not belong to actor")
	ErrCardTokenization  = errors.New("card tokenization failed")
)
