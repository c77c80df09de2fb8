// Package repotest provides an in-memory repositories.Store for service
// tests. Atomic snapshots the whole state before running fn and restores it
// on error, so rollback behavior matches the database-backed store. Not safe
// for concurrent use; tests drive it from a single goroutine.
package repotest

import (
	"context"
	"encoding/json"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"

	"github.com/shopspring/decimal"
)

// Store is the in-memory repositories.Store implementation.
type Store struct {
	WalletRows      map[uint]*models.Wallet
	TransactionRows map[uint]*models.Transaction
	RuleRows        map[uint]*models.CommissionRule
	ScheduleRows    map[uint]*models.ScheduledTransfer
	WithdrawalRows  map[uint]*models.WithdrawalRequest
	RechargeRows    map[uint]*models.RechargeRequest
	OutboxRows      map[uint]*models.OutboxEvent
	ProductRows     map[uint]*models.Product
	ReferralRows    map[uint]*models.ReferralBonus

	nextID uint
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		WalletRows:      map[uint]*models.Wallet{},
		TransactionRows: map[uint]*models.Transaction{},
		RuleRows:        map[uint]*models.CommissionRule{},
		ScheduleRows:    map[uint]*models.ScheduledTransfer{},
		WithdrawalRows:  map[uint]*models.WithdrawalRequest{},
		RechargeRows:    map[uint]*models.RechargeRequest{},
		OutboxRows:      map[uint]*models.OutboxEvent{},
		ProductRows:     map[uint]*models.Product{},
		ReferralRows:    map[uint]*models.ReferralBonus{},
		now:             time.Now,
	}
}

// SetNow overrides the clock used for CreatedAt stamps.
func (s *Store) SetNow(fn func() time.Time) { s.now = fn }

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AddWallet seeds a wallet with the given balance and returns it.
func (s *Store) AddWallet(ownerID uint, balance decimal.Decimal) *models.Wallet {
	w := &models.Wallet{
		ID:        s.id(),
		OwnerID:   ownerID,
		Balance:   balance,
		Status:    models.WalletStatusActive,
		CreatedAt: s.now(),
	}
	s.WalletRows[w.ID] = w
	return w
}

// AddRule seeds an active commission rule.
func (s *Store) AddRule(rule models.CommissionRule) *models.CommissionRule {
	rule.ID = s.id()
	rule.IsActive = true
	s.RuleRows[rule.ID] = &rule
	return s.RuleRows[rule.ID]
}

func (s *Store) Wallets() repositories.WalletRepository                       { return walletRepo{s} }
func (s *Store) Transactions() repositories.TransactionRepository             { return txRepo{s} }
func (s *Store) CommissionRules() repositories.CommissionRuleRepository       { return ruleRepo{s} }
func (s *Store) ScheduledTransfers() repositories.ScheduledTransferRepository { return scheduleRepo{s} }
func (s *Store) Funding() repositories.FundingRepository                      { return fundingRepo{s} }
func (s *Store) Outbox() repositories.OutboxRepository                        { return outboxRepo{s} }
func (s *Store) Products() repositories.ProductRepository                     { return productRepo{s} }
func (s *Store) Referrals() repositories.ReferralRepository                   { return referralRepo{s} }

// Atomic snapshots state, runs fn, and restores the snapshot when fn fails.
func (s *Store) Atomic(ctx context.Context, fn func(repositories.Store) error) error {
	snapshot := s.clone()
	if err := fn(s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type snapshot struct {
	Wallets      map[uint]*models.Wallet
	Transactions map[uint]*models.Transaction
	Rules        map[uint]*models.CommissionRule
	Schedules    map[uint]*models.ScheduledTransfer
	Withdrawals  map[uint]*models.WithdrawalRequest
	Recharges    map[uint]*models.RechargeRequest
	Outbox       map[uint]*models.OutboxEvent
	Products     map[uint]*models.Product
	Referrals    map[uint]*models.ReferralBonus
	NextID       uint
}

func (s *Store) clone() snapshot {
	return snapshot{
		Wallets:      cloneMap(s.WalletRows),
		Transactions: cloneMap(s.TransactionRows),
		Rules:        cloneMap(s.RuleRows),
		Schedules:    cloneMap(s.ScheduleRows),
		Withdrawals:  cloneMap(s.WithdrawalRows),
		Recharges:    cloneMap(s.RechargeRows),
		Outbox:       cloneMap(s.OutboxRows),
		Products:     cloneMap(s.ProductRows),
		Referrals:    cloneMap(s.ReferralRows),
		NextID:       s.nextID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.WalletRows = snap.Wallets
	s.TransactionRows = snap.Transactions
	s.RuleRows = snap.Rules
	s.ScheduleRows = snap.Schedules
	s.WithdrawalRows = snap.Withdrawals
	s.RechargeRows = snap.Recharges
	s.OutboxRows = snap.Outbox
	s.ProductRows = snap.Products
	s.ReferralRows = snap.Referrals
	s.nextID = snap.NextID
}

func cloneMap[T any](in map[uint]*T) map[uint]*T {
	out := make(map[uint]*T, len(in))
	for k, v := range in {
		out[k] = cloneRow(v)
	}
	return out
}

// cloneRow deep-copies a row through JSON so nested carts and metadata do not
// alias the original.
func cloneRow[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
