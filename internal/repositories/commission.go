package repositories

import (
	"context"
	"errors"
	"fmt"

	"moneta/internal/models"

	"gorm.io/gorm"
)

type commissionRuleRepository struct {
	db *gorm.DB
}

func (r *commissionRuleRepository) Create(ctx context.Context, rule *models.CommissionRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create commission rule: %w", err)
	}
	return nil
}

func (r *commissionRuleRepository) ActiveRule(ctx context.Context, action string, audience models.CommissionAudience) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	err := r.db.WithContext(ctx).
		Where("action = ? AND audience = ? AND is_active = ?", action, audience, true).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get commission rule: %w", err)
	}
	return &rule, nil
}

func (r *commissionRuleRepository) DeactivateActive(ctx context.Context, action string, audience models.CommissionAudience) error {
	err := r.db.WithContext(ctx).
		Model(&models.CommissionRule{}).
		Where("action = ? AND audience = ? AND is_active = ?", action, audience, true).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate commission rule: %w", err)
	}
	return nil
}

func (r *commissionRuleRepository) List(ctx context.Context) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	if err := r.db.WithContext(ctx).Order("action, audience, is_active DESC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list commission rules: %w", err)
	}
	return rules, nil
}
