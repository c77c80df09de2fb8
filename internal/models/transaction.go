package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeTransfer              = "transfer"
	TransactionTypePayment               = "payment"
	TransactionTypeRecharge              = "recharge"
	TransactionTypeWithdrawal            = "withdrawal"
	TransactionTypeRefund                = "refund"
	TransactionTypeBonus                 = "bonus"
	TransactionTypeMerchantRechargeDebit = "merchant_recharge_debit"
)

// Transaction statuses
const (
	TransactionStatusPending           = "pending"
	TransactionStatusCompleted         = "completed"
	TransactionStatusRefunded          = "refunded"
	TransactionStatusPartiallyRefunded = "partially_refunded"
	TransactionStatusRejected          = "rejected"
	TransactionStatusFailed            = "failed"
)

// Scheduled types
const (
	ScheduledTypeNow      = "now"
	ScheduledTypeDeferred = "deferred"
	ScheduledTypePlanned  = "planned"
)

// Transaction is one ledger entry. Rows are append-only: once completed, only
// the refund bookkeeping fields (Status, RefundedAmount, Cart refunded
// quantities, EarnedReward) are ever updated in place.
type Transaction struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Type             string          `gorm:"not null;index" json:"type"`
	Status           string          `gorm:"not null;default:'pending';index" json:"status"`
	SenderWalletID   *uint           `gorm:"index" json:"sender_wallet_id,omitempty"`
	ReceiverWalletID *uint           `gorm:"index" json:"receiver_wallet_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Commission       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"commission"`
	Cart             Cart            `gorm:"type:jsonb" json:"cart,omitempty"`
	RefundedAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"refunded_amount"`
	Reference        string          `gorm:"index" json:"reference,omitempty"`
	EarnedReward     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"earned_reward"`
	ScheduledType    string          `gorm:"default:'now'" json:"scheduled_type"`
	Description      string          `json:"description,omitempty"`
	Metadata         JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Refundable reports whether the transaction still has value left to refund.
func (t *Transaction) Refundable() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusPartiallyRefunded
}

// RefundRemaining is the value not yet reversed by prior refunds.
func (t *Transaction) RefundRemaining() decimal.Decimal {
	return t.Amount.Sub(t.RefundedAmount)
}
