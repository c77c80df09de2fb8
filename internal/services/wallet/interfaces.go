package wallet

import (
	"context"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the wallet store contract. Balances are only mutated here
// and by the settlement and refund services, which go through Adjust on a
// locked row inside their own unit of work.
type Service interface {
	GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uint) (*models.Wallet, error)
	// CreateWallet is idempotent: it returns the existing wallet when the
	// owner already has one.
	CreateWallet(ctx context.Context, ownerID uint) (*models.Wallet, error)
	GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error)
	// Adjust applies a signed delta atomically with respect to concurrent
	// adjustments on the same wallet. A negative delta that would take the
	// balance below zero fails with ErrInsufficientFunds.
	Adjust(ctx context.Context, walletID uint, delta decimal.Decimal) error
	// Lock freezes the wallet. Locked wallets reject every settlement they
	// take part in.
	Lock(ctx context.Context, walletID uint, reason string) error
	// Unlock reactivates a locked wallet.
	Unlock(ctx context.Context, walletID uint) error
	// InvalidateCache drops the cached copy of a wallet after an external
	// mutation (settlement, refund).
	InvalidateCache(ctx context.Context, walletID uint)
}

// MetricsCollector receives wallet operation metrics.
type MetricsCollector interface {
	RecordOperation(operation, result string)
	RecordBalanceChange(walletID uint, delta decimal.Decimal)
	RecordError(operation, errType string)
}
