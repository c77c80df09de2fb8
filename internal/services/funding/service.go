// Package funding handles the pre-settlement request flows: withdrawal and
// recharge requests that an operator approves or rejects. Approval triggers
// exactly one settlement; the pending -> approved/rejected transition is a
// conditional update, so a request is fulfilled at most once.
package funding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/services/settlement"
	"moneta/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

// CardDetails are the raw card fields for a card-funded recharge. They are
// tokenized immediately and never stored.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// Service is the funding request flow.
type Service interface {
	RequestWithdrawal(ctx context.Context, walletID uint, amount decimal.Decimal, bankDetails models.JSON) (*models.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, id uint, reason string) (*models.WithdrawalRequest, error)

	RequestRecharge(ctx context.Context, walletID uint, amount decimal.Decimal, reference string) (*models.RechargeRequest, error)
	RequestCardRecharge(ctx context.Context, walletID uint, amount decimal.Decimal, card CardDetails) (*models.RechargeRequest, error)
	ApproveRecharge(ctx context.Context, id uint) (*models.RechargeRequest, error)
	RejectRecharge(ctx context.Context, id uint, reason string) (*models.RechargeRequest, error)

	// DebitMerchantRecharge settles a merchant float top-up debit against
	// the merchant wallet.
	DebitMerchantRecharge(ctx context.Context, merchantWalletID uint, amount decimal.Decimal, reference string) (*models.Transaction, error)
}

type service struct {
	store      repositories.Store
	settlement settlement.Service
	wallets    wallet.Service
	platformID uint
}

// NewService creates a funding service.
func NewService(store repositories.Store, settlementSvc settlement.Service, wallets wallet.Service, platformWalletID uint) Service {
	if store == nil {
		panic("store is required")
	}
	if settlementSvc == nil {
		panic("settlement service is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if platformWalletID == 0 {
		panic("platform wallet id is required")
	}
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return &service{
		store:      store,
		settlement: settlementSvc,
		wallets:    wallets,
		platformID: platformWalletID,
	}
}

func (s *service) RequestWithdrawal(ctx context.Context, walletID uint, amount decimal.Decimal, bankDetails models.JSON) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	w, err := s.wallets.GetWallet(ctx, walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	// Soft check only; the settlement at approval time is authoritative.
	if w.Balance.LessThan(amount) {
		return nil, wallet.ErrInsufficientFunds
	}

	req := &models.WithdrawalRequest{
		WalletID:    walletID,
		Amount:      amount,
		Status:      models.RequestStatusPending,
		BankDetails: bankDetails,
		Reference:   uuid.NewString(),
	}
	if err := s.store.Funding().CreateWithdrawal(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) ApproveWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest

	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		claimed, err := store.Funding().ClaimWithdrawal(ctx, id, models.RequestStatusApproved)
		if err != nil {
			return err
		}
		if !claimed {
			return s.claimFailure(ctx, store, id)
		}

		req, err = store.Funding().GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}

		tx, err := s.settlement.SettleIn(ctx, store, settlement.Request{
			SenderWalletID:   req.WalletID,
			ReceiverWalletID: s.platformID,
			Amount:           req.Amount,
			Type:             models.TransactionTypeWithdrawal,
			Action:           models.ActionWithdrawal,
			Audiences:        []models.CommissionAudience{models.AudienceUser},
			Reference:        req.Reference,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		req.TransactionID = &tx.ID
		req.ReviewedAt = &now
		return store.Funding().UpdateWithdrawal(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, req.WalletID)
	s.wallets.InvalidateCache(ctx, s.platformID)
	return req, nil
}

func (s *service) RejectWithdrawal(ctx context.Context, id uint, reason string) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest

	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		claimed, err := store.Funding().ClaimWithdrawal(ctx, id, models.RequestStatusRejected)
		if err != nil {
			return err
		}
		if !claimed {
			return s.claimFailure(ctx, store, id)
		}

		req, err = store.Funding().GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		req.RejectionReason = reason
		req.ReviewedAt = &now
		return store.Funding().UpdateWithdrawal(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) RequestRecharge(ctx context.Context, walletID uint, amount decimal.Decimal, reference string) (*models.RechargeRequest, error) {
	return s.createRecharge(ctx, walletID, amount, reference, "manual")
}

func (s *service) RequestCardRecharge(ctx context.Context, walletID uint, amount decimal.Decimal, card CardDetails) (*models.RechargeRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.String(card.ExpMonth),
			ExpYear:  stripe.String(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	stripeToken, err := token.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCardTokenization, err)
	}

	return s.createRecharge(ctx, walletID, amount, stripeToken.ID, "card")
}

func (s *service) createRecharge(ctx context.Context, walletID uint, amount decimal.Decimal, reference, method string) (*models.RechargeRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.wallets.GetWallet(ctx, walletID); err != nil {
		return nil, ErrWalletNotFound
	}
	if reference == "" {
		reference = uuid.NewString()
	}

	req := &models.RechargeRequest{
		WalletID:  walletID,
		Amount:    amount,
		Status:    models.RequestStatusPending,
		Reference: reference,
		Method:    method,
	}
	if err := s.store.Funding().CreateRecharge(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) ApproveRecharge(ctx context.Context, id uint) (*models.RechargeRequest, error) {
	var req *models.RechargeRequest

	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		claimed, err := store.Funding().ClaimRecharge(ctx, id, models.RequestStatusApproved)
		if err != nil {
			return err
		}
		if !claimed {
			return s.rechargeClaimFailure(ctx, store, id)
		}

		req, err = store.Funding().GetRecharge(ctx, id)
		if err != nil {
			return err
		}

		tx, err := s.settlement.SettleIn(ctx, store, settlement.Request{
			SenderWalletID:   s.platformID,
			ReceiverWalletID: req.WalletID,
			Amount:           req.Amount,
			Type:             models.TransactionTypeRecharge,
			Reference:        req.Reference,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		req.TransactionID = &tx.ID
		req.ReviewedAt = &now
		return store.Funding().UpdateRecharge(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, req.WalletID)
	s.wallets.InvalidateCache(ctx, s.platformID)
	return req, nil
}

func (s *service) RejectRecharge(ctx context.Context, id uint, reason string) (*models.RechargeRequest, error) {
	var req *models.RechargeRequest

	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		claimed, err := store.Funding().ClaimRecharge(ctx, id, models.RequestStatusRejected)
		if err != nil {
			return err
		}
		if !claimed {
			return s.rechargeClaimFailure(ctx, store, id)
		}

		req, err = store.Funding().GetRecharge(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		req.RejectionReason = reason
		req.ReviewedAt = &now
		return store.Funding().UpdateRecharge(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) DebitMerchantRecharge(ctx context.Context, merchantWalletID uint, amount decimal.Decimal, reference string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.settlement.Settle(ctx, settlement.Request{
		SenderWalletID:   merchantWalletID,
		ReceiverWalletID: s.platformID,
		Amount:           amount,
		Type:             models.TransactionTypeMerchantRechargeDebit,
		Action:           models.ActionMerchantRecharge,
		Audiences:        []models.CommissionAudience{models.AudienceMerchant},
		Reference:        reference,
	})
}

// claimFailure distinguishes a missing request from an already-reviewed one.
func (s *service) claimFailure(ctx context.Context, store repositories.Store, id uint) error {
	if _, err := store.Funding().GetWithdrawal(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	return ErrAlreadyProcessed
}

func (s *service) rechargeClaimFailure(ctx context.Context, store repositories.Store, id uint) error {
	if _, err := store.Funding().GetRecharge(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	return ErrAlreadyProcessed
}
