package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListBetween(ctx context.Context, walletID uint, includeCommission bool, from, to *time.Time) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})

	if includeCommission {
		query = query.Where("sender_wallet_id = ? OR receiver_wallet_id = ? OR commission > 0", walletID, walletID)
	} else {
		query = query.Where("sender_wallet_id = ? OR receiver_wallet_id = ?", walletID, walletID)
	}
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	var txs []models.Transaction
	if err := query.Order("created_at ASC, id ASC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) SumReceived(ctx context.Context, walletID uint, before time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(amount), 0)", "receiver_wallet_id = ? AND created_at < ?", walletID, before)
}

func (r *transactionRepository) SumSent(ctx context.Context, walletID uint, before time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(amount + commission), 0)", "sender_wallet_id = ? AND created_at < ?", walletID, before)
}

func (r *transactionRepository) SumCommission(ctx context.Context, before time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(commission), 0)", "commission > 0 AND created_at < ?", before)
}

func (r *transactionRepository) sum(ctx context.Context, selectExpr, where string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where(where, args...).
		Select(selectExpr).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}
