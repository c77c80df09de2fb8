// Package refund reverses all or part of a prior payment. Itemized refunds
// track per-line refunded quantities; manual refunds take an
// operator-specified amount. The reversal settles through the same
// orchestrator as the original payment, inside one unit of work that also
// updates the original record's refund bookkeeping.
package refund

import (
	"context"
	"errors"
	"fmt"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/services/settlement"
	"moneta/internal/services/wallet"

	"github.com/shopspring/decimal"
)

// ItemRefund is one requested refund line.
type ItemRefund struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

// Service is the refund processor.
type Service interface {
	// Refund reverses the whole remaining value of a transaction.
	Refund(ctx context.Context, actorWalletID, transactionID uint) (*models.Transaction, error)
	// RefundItems reverses specific cart line quantities.
	RefundItems(ctx context.Context, actorWalletID, transactionID uint, items []ItemRefund) (*models.Transaction, error)
	// RefundManual reverses an operator-specified amount, up to the
	// value not yet refunded.
	RefundManual(ctx context.Context, actorWalletID, transactionID uint, amount decimal.Decimal) (*models.Transaction, error)
}

type service struct {
	store      repositories.Store
	settlement settlement.Service
	wallets    wallet.Service
}

// NewService creates a refund processor.
func NewService(store repositories.Store, settlementSvc settlement.Service, wallets wallet.Service) Service {
	if store == nil {
		panic("store is required")
	}
	if settlementSvc == nil {
		panic("settlement service is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	return &service{
		store:      store,
		settlement: settlementSvc,
		wallets:    wallets,
	}
}

func (s *service) Refund(ctx context.Context, actorWalletID, transactionID uint) (*models.Transaction, error) {
	return s.process(ctx, actorWalletID, transactionID, func(orig *models.Transaction) (decimal.Decimal, error) {
		// The remainder accounts for every prior refund, itemized or
		// manual; cart lines are closed out alongside.
		remaining := orig.RefundRemaining()
		if !remaining.IsPositive() {
			return decimal.Zero, ErrAlreadyRefunded
		}
		for i := range orig.Cart {
			orig.Cart[i].RefundedQuantity = orig.Cart[i].Quantity
		}
		return remaining, nil
	})
}

func (s *service) RefundItems(ctx context.Context, actorWalletID, transactionID uint, items []ItemRefund) (*models.Transaction, error) {
	if len(items) == 0 {
		return nil, ErrInvalidQuantity
	}
	return s.process(ctx, actorWalletID, transactionID, func(orig *models.Transaction) (decimal.Decimal, error) {
		if len(orig.Cart) == 0 {
			return decimal.Zero, ErrNoCart
		}
		amount := decimal.Zero
		for _, item := range items {
			if item.Quantity <= 0 {
				return decimal.Zero, ErrInvalidQuantity
			}
			line := findLine(orig.Cart, item.ItemID)
			if line == nil {
				return decimal.Zero, ErrItemNotInCart
			}
			if item.Quantity > line.Remaining() {
				return decimal.Zero, ErrOverRefund
			}
			amount = amount.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			line.RefundedQuantity += item.Quantity
		}
		return amount, nil
	})
}

func (s *service) RefundManual(ctx context.Context, actorWalletID, transactionID uint, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.process(ctx, actorWalletID, transactionID, func(orig *models.Transaction) (decimal.Decimal, error) {
		remaining := orig.RefundRemaining()
		if amount.GreaterThan(remaining) {
			return decimal.Zero, ErrOverRefund
		}
		if amount.Equal(remaining) {
			for i := range orig.Cart {
				orig.Cart[i].RefundedQuantity = orig.Cart[i].Quantity
			}
		}
		return amount, nil
	})
}

// process runs the shared refund unit of work: authorization, amount
// computation via compute (which also applies cart bookkeeping to orig),
// the reversal settlement, and the original record's status update.
func (s *service) process(ctx context.Context, actorWalletID, transactionID uint, compute func(orig *models.Transaction) (decimal.Decimal, error)) (*models.Transaction, error) {
	var refundTx *models.Transaction
	var origSender uint

	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		orig, err := store.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if orig.ReceiverWalletID == nil || *orig.ReceiverWalletID != actorWalletID {
			return ErrUnauthorizedActor
		}
		if orig.Status == models.TransactionStatusRefunded {
			return ErrAlreadyRefunded
		}
		if orig.Type != models.TransactionTypePayment && orig.Type != models.TransactionTypeTransfer {
			return ErrNotRefundable
		}
		if !orig.Refundable() {
			return ErrNotRefundable
		}
		if orig.SenderWalletID == nil {
			return ErrNotRefundable
		}
		origSender = *orig.SenderWalletID

		amount, err := compute(orig)
		if err != nil {
			return err
		}
		// Cumulative guard: whatever path computed the amount, the sum of
		// all refunds never exceeds the original value.
		if amount.GreaterThan(orig.RefundRemaining()) {
			return ErrOverRefund
		}

		// No commission is charged or returned on refunds.
		refundTx, err = s.settlement.SettleIn(ctx, store, settlement.Request{
			SenderWalletID:   actorWalletID,
			ReceiverWalletID: origSender,
			Amount:           amount,
			Type:             models.TransactionTypeRefund,
			Reference:        orig.Reference,
			Description:      fmt.Sprintf("refund of transaction %d", orig.ID),
		})
		if err != nil {
			return err
		}

		orig.RefundedAmount = orig.RefundedAmount.Add(amount)
		orig.Status = refundedStatus(orig)
		return store.Transactions().Update(ctx, orig)
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, actorWalletID)
	s.wallets.InvalidateCache(ctx, origSender)
	return refundTx, nil
}

func refundedStatus(orig *models.Transaction) string {
	if !orig.RefundRemaining().IsPositive() {
		return models.TransactionStatusRefunded
	}
	if len(orig.Cart) > 0 && orig.Cart.FullyRefunded() {
		return models.TransactionStatusRefunded
	}
	return models.TransactionStatusPartiallyRefunded
}

func findLine(cart models.Cart, itemID uint) *models.CartItem {
	for i := range cart {
		if cart[i].ItemID == itemID {
			return &cart[i]
		}
	}
	return nil
}
