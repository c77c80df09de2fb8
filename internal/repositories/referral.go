package repositories

import (
	"context"
	"errors"
	"fmt"

	"moneta/internal/models"

	"gorm.io/gorm"
)

type referralRepository struct {
	db *gorm.DB
}

func (r *referralRepository) Create(ctx context.Context, rb *models.ReferralBonus) error {
	if err := r.db.WithContext(ctx).Create(rb).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrReferralAlreadyPaid
		}
		return fmt.Errorf("failed to record referral bonus: %w", err)
	}
	return nil
}

func (r *referralRepository) Exists(ctx context.Context, referrerWalletID, refereeWalletID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralBonus{}).
		Where("referrer_wallet_id = ? AND referee_wallet_id = ?", referrerWalletID, refereeWalletID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check referral bonus: %w", err)
	}
	return count > 0, nil
}
