// Package settlement implements the orchestrator that executes a money
// movement as one atomic unit: balance validation, wallet debits and credits,
// commission routing to the platform wallet, the ledger append and the
// side-effect outbox write all commit together or not at all.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/repositories/cache"
	"moneta/internal/services/commission"
	"moneta/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service executes settlements.
type Service interface {
	// Settle runs the full atomic unit and post-commit bookkeeping.
	Settle(ctx context.Context, req Request) (*models.Transaction, error)
	// SettleIn runs the settlement steps inside an already-open unit of
	// work. Callers coordinating extra writes with the settlement (refunds,
	// funding approvals) use this from within their own Store.Atomic.
	SettleIn(ctx context.Context, tx repositories.Store, req Request) (*models.Transaction, error)
}

type service struct {
	store   repositories.Store
	rules   commission.Service
	wallets wallet.Service
	cache   *cache.CacheService
	cfg     Config
}

// NewService creates a settlement orchestrator. The cache may be nil;
// idempotency keys are then not honored.
func NewService(store repositories.Store, rules commission.Service, wallets wallet.Service, cacheSvc *cache.CacheService, cfg Config) Service {
	if store == nil {
		panic("store is required")
	}
	if rules == nil {
		panic("commission service is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if cfg.PlatformWalletID == 0 {
		panic("platform wallet id is required")
	}
	return &service{
		store:   store,
		rules:   rules,
		wallets: wallets,
		cache:   cacheSvc,
		cfg:     cfg,
	}
}

func (s *service) Settle(ctx context.Context, req Request) (*models.Transaction, error) {
	if existing, ok := s.lookupIdempotent(ctx, req.IdempotencyKey); ok {
		return existing, nil
	}

	var tx *models.Transaction
	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		var err error
		tx, err = s.SettleIn(ctx, store, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, req, tx)
	return tx, nil
}

func (s *service) SettleIn(ctx context.Context, store repositories.Store, req Request) (*models.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	comm, err := s.quoteCommission(ctx, req)
	if err != nil {
		return nil, err
	}
	if comm.IsPositive() && comm.GreaterThanOrEqual(req.Amount) {
		return nil, ErrCommissionExceedsAmount
	}

	sender, _, err := s.lockWallets(ctx, store, req, comm)
	if err != nil {
		return nil, err
	}

	totalDebit := req.Amount.Add(comm)
	if sender.Balance.LessThan(totalDebit) {
		return nil, ErrInsufficientFunds
	}

	wallets := store.Wallets()
	if err := wallets.AdjustBalance(ctx, req.SenderWalletID, totalDebit.Neg()); err != nil {
		return nil, fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := wallets.AdjustBalance(ctx, req.ReceiverWalletID, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to credit receiver: %w", err)
	}
	if comm.IsPositive() {
		if err := wallets.AdjustBalance(ctx, s.cfg.PlatformWalletID, comm); err != nil {
			return nil, fmt.Errorf("failed to credit platform: %w", err)
		}
	}

	tx, err := s.appendLedger(ctx, store, req, comm)
	if err != nil {
		return nil, err
	}

	if err := s.enqueueSideEffects(ctx, store, req, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func validateRequest(req Request) error {
	if !req.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if req.SenderWalletID == req.ReceiverWalletID {
		return ErrSelfTransferNotAllowed
	}
	switch req.Type {
	case models.TransactionTypeTransfer,
		models.TransactionTypePayment,
		models.TransactionTypeRecharge,
		models.TransactionTypeWithdrawal,
		models.TransactionTypeRefund,
		models.TransactionTypeBonus,
		models.TransactionTypeMerchantRechargeDebit:
		return nil
	default:
		return ErrInvalidType
	}
}

func (s *service) quoteCommission(ctx context.Context, req Request) (decimal.Decimal, error) {
	if req.Action == "" || len(req.Audiences) == 0 {
		return decimal.Zero, nil
	}
	return s.rules.Quote(ctx, req.Action, req.Audiences, req.Amount)
}

// lockWallets acquires row locks on every involved wallet in ascending id
// order so concurrent settlements cannot deadlock.
func (s *service) lockWallets(ctx context.Context, store repositories.Store, req Request, comm decimal.Decimal) (sender, receiver *models.Wallet, err error) {
	ids := []uint{req.SenderWalletID, req.ReceiverWalletID}
	if comm.IsPositive() {
		ids = append(ids, s.cfg.PlatformWalletID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[uint]*models.Wallet, len(ids))
	for _, id := range ids {
		if _, done := locked[id]; done {
			continue
		}
		w, err := store.Wallets().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return nil, nil, ErrWalletNotFound
			}
			return nil, nil, err
		}
		if w.Status != models.WalletStatusActive {
			return nil, nil, ErrWalletLocked
		}
		locked[id] = w
	}
	return locked[req.SenderWalletID], locked[req.ReceiverWalletID], nil
}

func (s *service) appendLedger(ctx context.Context, store repositories.Store, req Request, comm decimal.Decimal) (*models.Transaction, error) {
	sender := req.SenderWalletID
	receiver := req.ReceiverWalletID

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	scheduledType := req.ScheduledType
	if scheduledType == "" {
		scheduledType = models.ScheduledTypeNow
	}

	tx := &models.Transaction{
		Type:             req.Type,
		Status:           models.TransactionStatusCompleted,
		SenderWalletID:   &sender,
		ReceiverWalletID: &receiver,
		Amount:           req.Amount,
		Commission:       comm,
		Cart:             req.Cart,
		Reference:        reference,
		ScheduledType:    scheduledType,
		Description:      req.Description,
		Metadata:         req.Metadata,
	}
	if err := store.Transactions().Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to append ledger record: %w", err)
	}
	return tx, nil
}

// enqueueSideEffects writes side-effect intents to the outbox inside the
// settlement's transaction. The drain worker runs them after commit; they
// never participate in the financial unit of work.
func (s *service) enqueueSideEffects(ctx context.Context, store repositories.Store, req Request, tx *models.Transaction) error {
	// Status is set explicitly rather than left to the column default, so
	// the returned handle matches the stored row.
	events := []*models.OutboxEvent{
		{
			Kind:          models.OutboxKindNotification,
			Status:        models.OutboxStatusPending,
			TransactionID: &tx.ID,
			Payload:       models.JSON{"transaction_id": tx.ID},
		},
	}

	if tx.Type == models.TransactionTypePayment {
		events = append(events, &models.OutboxEvent{
			Kind:          models.OutboxKindRewardAccrual,
			Status:        models.OutboxStatusPending,
			TransactionID: &tx.ID,
			Payload:       models.JSON{"transaction_id": tx.ID},
		})
	}
	if len(req.Cart) > 0 {
		events = append(events, &models.OutboxEvent{
			Kind:          models.OutboxKindStockDecrement,
			Status:        models.OutboxStatusPending,
			TransactionID: &tx.ID,
			Payload:       models.JSON{"transaction_id": tx.ID},
		})
	}
	if referrer, ok := uintFromMetadata(req.Metadata, MetadataReferrerWalletID); ok {
		events = append(events, &models.OutboxEvent{
			Kind:          models.OutboxKindReferralBonus,
			Status:        models.OutboxStatusPending,
			TransactionID: &tx.ID,
			Payload: models.JSON{
				"transaction_id":     tx.ID,
				"referrer_wallet_id": referrer,
				"referee_wallet_id":  req.SenderWalletID,
			},
		})
	}

	for _, evt := range events {
		if err := store.Outbox().Enqueue(ctx, evt); err != nil {
			return fmt.Errorf("failed to enqueue side effect: %w", err)
		}
	}
	return nil
}

func (s *service) afterCommit(ctx context.Context, req Request, tx *models.Transaction) {
	s.wallets.InvalidateCache(ctx, req.SenderWalletID)
	s.wallets.InvalidateCache(ctx, req.ReceiverWalletID)
	if tx.Commission.IsPositive() {
		s.wallets.InvalidateCache(ctx, s.cfg.PlatformWalletID)
	}

	if req.IdempotencyKey != "" && s.cache != nil {
		key := cache.IdempotencyKey(req.IdempotencyKey)
		if _, err := s.cache.SetNX(ctx, key, tx.ID, 24*time.Hour); err != nil {
			log.Printf("failed to store idempotency key %s: %v", key, err)
		}
	}
}

func (s *service) lookupIdempotent(ctx context.Context, key string) (*models.Transaction, bool) {
	if key == "" || s.cache == nil {
		return nil, false
	}
	var txID uint
	found, err := s.cache.Get(ctx, cache.IdempotencyKey(key), &txID)
	if err != nil || !found {
		return nil, false
	}
	tx, err := s.store.Transactions().GetByID(ctx, txID)
	if err != nil {
		return nil, false
	}
	return tx, true
}

func uintFromMetadata(m models.JSON, key string) (uint, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case uint:
		return v, true
	case int:
		if v > 0 {
			return uint(v), true
		}
	case float64:
		if v > 0 {
			return uint(v), true
		}
	}
	return 0, false
}
