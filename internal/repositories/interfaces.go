package repositories

import (
	"context"
	"time"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
)

// WalletRepository provides access to wallet rows.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uint) (*models.Wallet, error)
	// GetForUpdate loads the wallet with a row-level lock. Only meaningful
	// inside Store.Atomic.
	GetForUpdate(ctx context.Context, id uint) (*models.Wallet, error)
	AdjustBalance(ctx context.Context, id uint, delta decimal.Decimal) error
	SetStatus(ctx context.Context, id uint, status, reason string) error
}

// TransactionRepository provides access to the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	// ListBetween returns all transactions touching the wallet within the
	// window, ascending by creation time. When includeCommission is set,
	// commission-bearing transactions are included even when the wallet is
	// neither party (the platform wallet's commission credits).
	ListBetween(ctx context.Context, walletID uint, includeCommission bool, from, to *time.Time) ([]models.Transaction, error)
	SumReceived(ctx context.Context, walletID uint, before time.Time) (decimal.Decimal, error)
	// SumSent totals amount plus commission for transactions the wallet sent.
	SumSent(ctx context.Context, walletID uint, before time.Time) (decimal.Decimal, error)
	SumCommission(ctx context.Context, before time.Time) (decimal.Decimal, error)
}

// CommissionRuleRepository provides access to fee rules.
type CommissionRuleRepository interface {
	Create(ctx context.Context, rule *models.CommissionRule) error
	// ActiveRule returns the single active rule for the pair, or
	// ErrRuleNotFound when none exists.
	ActiveRule(ctx context.Context, action string, audience models.CommissionAudience) (*models.CommissionRule, error)
	DeactivateActive(ctx context.Context, action string, audience models.CommissionAudience) error
	List(ctx context.Context) ([]models.CommissionRule, error)
}

// ScheduledTransferRepository provides access to the deferred transfer queue.
type ScheduledTransferRepository interface {
	Create(ctx context.Context, st *models.ScheduledTransfer) error
	GetByID(ctx context.Context, id uint) (*models.ScheduledTransfer, error)
	DuePending(ctx context.Context, now time.Time, limit int) ([]models.ScheduledTransfer, error)
	// Claim transitions the entry from pending to processing. It returns
	// false when another sweep already claimed it.
	Claim(ctx context.Context, id uint) (bool, error)
	// ReleaseStale returns entries stranded in processing since before
	// cutoff to pending, reporting how many were released.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
	Update(ctx context.Context, st *models.ScheduledTransfer) error
}

// FundingRepository provides access to withdrawal and recharge requests.
type FundingRepository interface {
	CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	// ClaimWithdrawal transitions pending -> to; false when already reviewed.
	ClaimWithdrawal(ctx context.Context, id uint, to string) (bool, error)
	UpdateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error

	CreateRecharge(ctx context.Context, req *models.RechargeRequest) error
	GetRecharge(ctx context.Context, id uint) (*models.RechargeRequest, error)
	ClaimRecharge(ctx context.Context, id uint, to string) (bool, error)
	UpdateRecharge(ctx context.Context, req *models.RechargeRequest) error
}

// OutboxRepository provides access to pending side-effect intents.
type OutboxRepository interface {
	Enqueue(ctx context.Context, evt *models.OutboxEvent) error
	Pending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	Update(ctx context.Context, evt *models.OutboxEvent) error
}

// ProductRepository provides access to merchant inventory.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// DecrementStock lowers stock by qty, floored at zero.
	DecrementStock(ctx context.Context, id uint, qty int) error
}

// ReferralRepository records paid referral bonuses.
type ReferralRepository interface {
	// Create fails with ErrReferralAlreadyPaid when the pair already exists.
	Create(ctx context.Context, rb *models.ReferralBonus) error
	Exists(ctx context.Context, referrerWalletID, refereeWalletID uint) (bool, error)
}

// Store bundles all repositories behind a single transactional boundary.
// Atomic runs fn against a Store bound to one database transaction: every
// mutation inside either commits together or not at all.
type Store interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
	CommissionRules() CommissionRuleRepository
	ScheduledTransfers() ScheduledTransferRepository
	Funding() FundingRepository
	Outbox() OutboxRepository
	Products() ProductRepository
	Referrals() ReferralRepository
	Atomic(ctx context.Context, fn func(Store) error) error
}
