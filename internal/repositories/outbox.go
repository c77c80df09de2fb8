package repositories

import (
	"context"
	"fmt"

	"moneta/internal/models"

	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, evt *models.OutboxEvent) error {
	if err := r.db.WithContext(ctx).Create(evt).Error; err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) Pending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) Update(ctx context.Context, evt *models.OutboxEvent) error {
	if err := r.db.WithContext(ctx).Save(evt).Error; err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	return nil
}
