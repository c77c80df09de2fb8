package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moneta/internal/models"

	"gorm.io/gorm"
)

type scheduleRepository struct {
	db *gorm.DB
}

func (r *scheduleRepository) Create(ctx context.Context, st *models.ScheduledTransfer) error {
	if err := r.db.WithContext(ctx).Create(st).Error; err != nil {
		return fmt.Errorf("failed to create scheduled transfer: %w", err)
	}
	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uint) (*models.ScheduledTransfer, error) {
	var st models.ScheduledTransfer
	if err := r.db.WithContext(ctx).First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledTransferNotFound
		}
		return nil, fmt.Errorf("failed to get scheduled transfer: %w", err)
	}
	return &st, nil
}

func (r *scheduleRepository) DuePending(ctx context.Context, now time.Time, limit int) ([]models.ScheduledTransfer, error) {
	var entries []models.ScheduledTransfer
	err := r.db.WithContext(ctx).
		Where("status = ? AND (planned_date IS NULL OR planned_date <= ?)", models.ScheduleStatusPending, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due transfers: %w", err)
	}
	return entries, nil
}

// Claim performs the conditional pending -> processing transition that keeps
// concurrent sweeps from double-executing the same entry.
func (r *scheduleRepository) Claim(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledTransfer{}).
		Where("id = ? AND status = ?", id, models.ScheduleStatusPending).
		Update("status", models.ScheduleStatusProcessing)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim scheduled transfer: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReleaseStale recovers entries whose claimant died between Claim and the
// outcome Update. They would otherwise sit in processing forever, invisible
// to DuePending.
func (r *scheduleRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ScheduledTransfer{}).
		Where("status = ? AND updated_at < ?", models.ScheduleStatusProcessing, cutoff).
		Update("status", models.ScheduleStatusPending)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to release stale transfers: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *scheduleRepository) Update(ctx context.Context, st *models.ScheduledTransfer) error {
	if err := r.db.WithContext(ctx).Save(st).Error; err != nil {
		return fmt.Errorf("failed to update scheduled transfer: %w", err)
	}
	return nil
}
