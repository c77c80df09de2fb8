package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Funding request statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// WithdrawalRequest is a pre-settlement request to move wallet funds out of
// the platform. Approval settles wallet -> platform exactly once; the
// pending -> approved/rejected transition is conditional so an operator
// double-click cannot fulfil it twice.
type WithdrawalRequest struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	WalletID        uint            `gorm:"not null;index" json:"wallet_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status          string          `gorm:"not null;default:'pending';index" json:"status"`
	BankDetails     JSON            `gorm:"type:jsonb" json:"bank_details,omitempty"`
	Reference       string          `gorm:"index" json:"reference,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	TransactionID   *uint           `json:"transaction_id,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RechargeRequest is a pre-settlement request to load funds onto a wallet,
// referencing an external payment (bank deposit, mobile money or a tokenized
// card charge).
type RechargeRequest struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	WalletID        uint            `gorm:"not null;index" json:"wallet_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status          string          `gorm:"not null;default:'pending';index" json:"status"`
	Reference       string          `gorm:"index" json:"reference,omitempty"`
	Method          string          `gorm:"default:'manual'" json:"method"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	TransactionID   *uint           `json:"transaction_id,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
