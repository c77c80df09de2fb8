package repositories

import (
	"context"
	"errors"
	"fmt"

	"moneta/internal/models"

	"gorm.io/gorm"
)

type fundingRepository struct {
	db *gorm.DB
}

func (r *fundingRepository) CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *fundingRepository) GetWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	return &req, nil
}

func (r *fundingRepository) ClaimWithdrawal(ctx context.Context, id uint, to string) (bool, error) {
	return r.claim(ctx, &models.WithdrawalRequest{}, id, to)
}

func (r *fundingRepository) UpdateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	return nil
}

func (r *fundingRepository) CreateRecharge(ctx context.Context, req *models.RechargeRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create recharge request: %w", err)
	}
	return nil
}

func (r *fundingRepository) GetRecharge(ctx context.Context, id uint) (*models.RechargeRequest, error) {
	var req models.RechargeRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get recharge request: %w", err)
	}
	return &req, nil
}

func (r *fundingRepository) ClaimRecharge(ctx context.Context, id uint, to string) (bool, error) {
	return r.claim(ctx, &models.RechargeRequest{}, id, to)
}

func (r *fundingRepository) UpdateRecharge(ctx context.Context, req *models.RechargeRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update recharge request: %w", err)
	}
	return nil
}

// claim performs the conditional pending -> reviewed transition; a request is
// fulfilled at most once no matter how many operators click approve.
func (r *fundingRepository) claim(ctx context.Context, model interface{}, id uint, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim request: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
