package sideeffect

import (
	"context"
	"errors"
	"fmt"
	"log"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/services/settlement"

	"github.com/shopspring/decimal"
)

// RewardRatePerUnit is the reward points earned per whole currency unit paid.
var RewardRatePerUnit = decimal.NewFromInt(1)

// RewardHandler accrues reward points for completed payments and records the
// earned amount on the transaction's side channel.
type RewardHandler struct {
	store repositories.Store
}

// NewRewardHandler creates a reward accrual handler.
func NewRewardHandler(store repositories.Store) *RewardHandler {
	return &RewardHandler{store: store}
}

func (h *RewardHandler) Kind() string { return models.OutboxKindRewardAccrual }

func (h *RewardHandler) Handle(ctx context.Context, evt *models.OutboxEvent) error {
	txID, ok := payloadUint(evt.Payload, "transaction_id")
	if !ok {
		return ErrInvalidPayload
	}

	tx, err := h.store.Transactions().GetByID(ctx, txID)
	if err != nil {
		return err
	}
	if !tx.EarnedReward.IsZero() {
		// Already accrued on a previous attempt.
		return nil
	}

	tx.EarnedReward = tx.Amount.Floor().Mul(RewardRatePerUnit)
	return h.store.Transactions().Update(ctx, tx)
}

// ReferralHandler pays a one-time referral bonus from the platform wallet.
// The referral_bonuses unique constraint is the idempotency guard: a pair is
// paid at most once no matter how many events fire for it.
type ReferralHandler struct {
	store      repositories.Store
	settlement settlement.Service
	platformID uint
	bonus      decimal.Decimal
}

// NewReferralHandler creates a referral bonus handler.
func NewReferralHandler(store repositories.Store, settlementSvc settlement.Service, platformWalletID uint, bonus decimal.Decimal) *ReferralHandler {
	return &ReferralHandler{
		store:      store,
		settlement: settlementSvc,
		platformID: platformWalletID,
		bonus:      bonus,
	}
}

func (h *ReferralHandler) Kind() string { return models.OutboxKindReferralBonus }

func (h *ReferralHandler) Handle(ctx context.Context, evt *models.OutboxEvent) error {
	referrer, ok := payloadUint(evt.Payload, "referrer_wallet_id")
	if !ok {
		return ErrInvalidPayload
	}
	referee, ok := payloadUint(evt.Payload, "referee_wallet_id")
	if !ok {
		return ErrInvalidPayload
	}
	if !h.bonus.IsPositive() {
		return nil
	}

	err := h.store.Atomic(ctx, func(store repositories.Store) error {
		record := &models.ReferralBonus{
			ReferrerWalletID: referrer,
			RefereeWalletID:  referee,
			Amount:           h.bonus,
		}
		if err := store.Referrals().Create(ctx, record); err != nil {
			return err
		}

		tx, err := h.settlement.SettleIn(ctx, store, settlement.Request{
			SenderWalletID:   h.platformID,
			ReceiverWalletID: referrer,
			Amount:           h.bonus,
			Type:             models.TransactionTypeBonus,
			Description:      fmt.Sprintf("referral bonus for wallet %d", referee),
		})
		if err != nil {
			return err
		}
		record.TransactionID = &tx.ID
		return nil
	})
	if errors.Is(err, repositories.ErrReferralAlreadyPaid) {
		return nil
	}
	return err
}

// StockHandler decrements merchant inventory for each cart line of a
// committed payment. Missing products are logged and skipped: inventory
// drift never blocks or unwinds a payment.
type StockHandler struct {
	store repositories.Store
}

// NewStockHandler creates a stock decrement handler.
func NewStockHandler(store repositories.Store) *StockHandler {
	return &StockHandler{store: store}
}

func (h *StockHandler) Kind() string { return models.OutboxKindStockDecrement }

func (h *StockHandler) Handle(ctx context.Context, evt *models.OutboxEvent) error {
	txID, ok := payloadUint(evt.Payload, "transaction_id")
	if !ok {
		return ErrInvalidPayload
	}

	tx, err := h.store.Transactions().GetByID(ctx, txID)
	if err != nil {
		return err
	}

	for _, line := range tx.Cart {
		if err := h.store.Products().DecrementStock(ctx, line.ItemID, line.Quantity); err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				log.Printf("stock decrement: product %d not found for transaction %d", line.ItemID, txID)
				continue
			}
			return err
		}
	}
	return nil
}

// Notifier delivers a settlement notification to a wallet owner.
type Notifier interface {
	Notify(ctx context.Context, walletID uint, tx *models.Transaction) error
}

// LogNotifier writes notifications to the process log. Stands in for the
// push/SMS gateway.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, walletID uint, tx *models.Transaction) error {
	log.Printf("notify wallet %d: %s transaction %d for %s", walletID, tx.Type, tx.ID, tx.Amount)
	return nil
}

// NotificationHandler notifies both parties of a settlement.
type NotificationHandler struct {
	store    repositories.Store
	notifier Notifier
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(store repositories.Store, notifier Notifier) *NotificationHandler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &NotificationHandler{store: store, notifier: notifier}
}

func (h *NotificationHandler) Kind() string { return models.OutboxKindNotification }

func (h *NotificationHandler) Handle(ctx context.Context, evt *models.OutboxEvent) error {
	txID, ok := payloadUint(evt.Payload, "transaction_id")
	if !ok {
		return ErrInvalidPayload
	}

	tx, err := h.store.Transactions().GetByID(ctx, txID)
	if err != nil {
		return err
	}
	if tx.SenderWalletID != nil {
		if err := h.notifier.Notify(ctx, *tx.SenderWalletID, tx); err != nil {
			return err
		}
	}
	if tx.ReceiverWalletID != nil {
		if err := h.notifier.Notify(ctx, *tx.ReceiverWalletID, tx); err != nil {
			return err
		}
	}
	return nil
}
