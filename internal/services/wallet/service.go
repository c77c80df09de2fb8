// Package wallet implements the wallet store: balance reads, idempotent
// wallet creation and the atomic balance adjustment every settlement is
// built on.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

type service struct {
	store   repositories.Store
	cache   *cache.CacheService
	metrics MetricsCollector
}

// NewService creates a new wallet service. The cache may be nil; metrics may
// be nil, in which case a no-op collector is used.
func NewService(store repositories.Store, cacheSvc *cache.CacheService, metrics MetricsCollector) Service {
	if store == nil {
		panic("store is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		store:   store,
		cache:   cacheSvc,
		metrics: metrics,
	}
}

func (s *service) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	if s.cache != nil {
		var cached models.Wallet
		if found, err := s.cache.Get(ctx, cache.WalletKey(walletID), &cached); err == nil && found {
			return &cached, nil
		}
	}

	wallet, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cache.WalletKey(walletID), wallet, CacheDuration); err != nil {
			log.Printf("failed to cache wallet %d: %v", walletID, err)
		}
	}
	return wallet, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uint) (*models.Wallet, error) {
	wallet, err := s.store.Wallets().GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) CreateWallet(ctx context.Context, ownerID uint) (*models.Wallet, error) {
	wallet := &models.Wallet{
		OwnerID: ownerID,
		Balance: decimal.Zero,
		Status:  models.WalletStatusActive,
	}

	err := s.store.Wallets().Create(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletExists) {
			return s.store.Wallets().GetByOwner(ctx, ownerID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *service) Adjust(ctx context.Context, walletID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return ErrInvalidAmount
	}

	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		wallet, err := tx.Wallets().GetForUpdate(ctx, walletID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if wallet.Status != models.WalletStatusActive {
			return ErrWalletLocked
		}
		if delta.IsNegative() && wallet.Balance.Add(delta).IsNegative() {
			return ErrInsufficientFunds
		}
		return tx.Wallets().AdjustBalance(ctx, walletID, delta)
	})
	if err != nil {
		s.metrics.RecordError("adjust", err.Error())
		return err
	}

	s.InvalidateCache(ctx, walletID)
	s.metrics.RecordOperation("adjust", "ok")
	s.metrics.RecordBalanceChange(walletID, delta)
	return nil
}

func (s *service) Lock(ctx context.Context, walletID uint, reason string) error {
	return s.setStatus(ctx, walletID, models.WalletStatusLocked, reason)
}

func (s *service) Unlock(ctx context.Context, walletID uint) error {
	return s.setStatus(ctx, walletID, models.WalletStatusActive, "")
}

func (s *service) setStatus(ctx context.Context, walletID uint, status, reason string) error {
	if err := s.store.Wallets().SetStatus(ctx, walletID, status, reason); err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to set wallet status: %w", err)
	}
	s.InvalidateCache(ctx, walletID)
	s.metrics.RecordOperation("set_status", status)
	return nil
}

func (s *service) InvalidateCache(ctx context.Context, walletID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.WalletKey(walletID)); err != nil {
		log.Printf("failed to invalidate wallet cache %d: %v", walletID, err)
	}
}
