package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outbox event kinds
const (
	OutboxKindRewardAccrual  = "reward_accrual"
	OutboxKindReferralBonus  = "referral_bonus"
	OutboxKindStockDecrement = "stock_decrement"
	OutboxKindNotification   = "notification"
)

// Outbox event statuses
const (
	OutboxStatusPending   = "pending"
	OutboxStatusProcessed = "processed"
	OutboxStatusFailed    = "failed"
)

// OutboxEvent is a side-effect intent written in the same database
// transaction as the settlement that produced it. A background worker drains
// pending events; a handler failure leaves the event pending for retry and
// never unwinds the settlement.
type OutboxEvent struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Kind          string     `gorm:"not null;index" json:"kind"`
	Payload       JSON       `gorm:"type:jsonb" json:"payload"`
	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	TransactionID *uint      `gorm:"index" json:"transaction_id,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReferralBonus records that a referral bonus was paid for a referrer/referee
// pair. The unique index is the idempotency guard: paying twice for the same
// pair fails on insert.
type ReferralBonus struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	ReferrerWalletID uint            `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referrer_wallet_id"`
	RefereeWalletID  uint            `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referee_wallet_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	TransactionID    *uint           `json:"transaction_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
