package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormStore implements Store on top of a *gorm.DB. Atomic re-binds every
// repository to the transaction handle so all mutations inside fn share one
// database transaction.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *gorm.DB) Store {
	if db == nil {
		panic("db is required")
	}
	return &gormStore{db: db}
}

func (s *gormStore) Wallets() WalletRepository                       { return &walletRepository{db: s.db} }
func (s *gormStore) Transactions() TransactionRepository             { return &transactionRepository{db: s.db} }
func (s *gormStore) CommissionRules() CommissionRuleRepository       { return &commissionRuleRepository{db: s.db} }
func (s *gormStore) ScheduledTransfers() ScheduledTransferRepository { return &scheduleRepository{db: s.db} }
func (s *gormStore) Funding() FundingRepository                      { return &fundingRepository{db: s.db} }
func (s *gormStore) Outbox() OutboxRepository                        { return &outboxRepository{db: s.db} }
func (s *gormStore) Products() ProductRepository                     { return &productRepository{db: s.db} }
func (s *gormStore) Referrals() ReferralRepository                   { return &referralRepository{db: s.db} }

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
