package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

// Wallet holds the current balance for a single owner. Balances are only
// mutated through the settlement and refund services; a committed settlement
// never leaves a balance negative.
type Wallet struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	OwnerID      uint            `gorm:"uniqueIndex;not null" json:"owner_id"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	Currency     string          `gorm:"default:'XAF'" json:"currency"`
	Status       string          `gorm:"default:'active'" json:"status"`
	StatusReason string          `gorm:"default:''" json:"status_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
