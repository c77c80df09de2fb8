package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scheduled transfer statuses
const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusProcessing = "processing"
	ScheduleStatusCompleted  = "completed"
	ScheduleStatusFailed     = "failed"
)

// ScheduledTransfer is a transfer requested for later execution. No balance
// is touched until the sweep claims the row and settles it; the resulting
// ledger entry is linked back through TransactionID.
type ScheduledTransfer struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	SenderWalletID   uint            `gorm:"not null;index" json:"sender_wallet_id"`
	ReceiverWalletID uint            `gorm:"not null" json:"receiver_wallet_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Type             string          `gorm:"not null" json:"type"`
	PlannedDate      *time.Time      `gorm:"index" json:"planned_date,omitempty"`
	Status           string          `gorm:"not null;default:'pending';index" json:"status"`
	Attempts         int             `gorm:"not null;default:0" json:"attempts"`
	LastError        string          `json:"last_error,omitempty"`
	TransactionID    *uint           `json:"transaction_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Due reports whether the entry is eligible for execution at the given time.
// Deferred entries with no planned date are eligible immediately.
func (s *ScheduledTransfer) Due(now time.Time) bool {
	if s.Status != ScheduleStatusPending {
		return false
	}
	if s.PlannedDate == nil {
		return true
	}
	return !s.PlannedDate.After(now)
}
