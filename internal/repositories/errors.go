package repositories

import "errors"

// Repository errors
var (
	ErrWalletNotFound            = errors.New("wallet not found")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrRuleNotFound              = errors.New("commission rule not found")
	ErrScheduledTransferNotFound = errors.New("scheduled transfer not found")
	ErrRequestNotFound           = errors.New("request not found")
	ErrProductNotFound           = errors.New("product not found")
	ErrReferralAlreadyPaid       = errors.New("referral bonus already paid")
	ErrWalletExists              = errors.New("wallet already exists for owner")
)
