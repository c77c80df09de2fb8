package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionAudience identifies which side of a settlement a rule applies to.
type CommissionAudience string

const (
	AudienceUser     CommissionAudience = "USER"
	AudienceMerchant CommissionAudience = "MERCHANT"
)

// CommissionKind selects how a rule's value is interpreted.
type CommissionKind string

const (
	CommissionFixed      CommissionKind = "fixed"
	CommissionPercentage CommissionKind = "percentage"
)

// Commissionable actions
const (
	ActionSendMoney        = "send_money"
	ActionQRPayment        = "qr_payment"
	ActionWithdrawal       = "withdrawal"
	ActionRecharge         = "recharge"
	ActionMerchantRecharge = "merchant_recharge"
	ActionReferralBonus    = "referral_bonus"
)

// CommissionRule is the active fee configuration for an (action, audience)
// pair. At most one active rule exists per pair; activating a new rule
// deactivates the previous one.
type CommissionRule struct {
	ID        uint               `gorm:"primarykey" json:"id"`
	Action    string             `gorm:"not null;index:idx_rule_pair" json:"action"`
	Audience  CommissionAudience `gorm:"not null;index:idx_rule_pair" json:"audience"`
	Kind      CommissionKind     `gorm:"not null" json:"kind"`
	Value     decimal.Decimal    `gorm:"type:numeric(20,4);not null" json:"value"`
	MinAmount *decimal.Decimal   `gorm:"type:numeric(20,2)" json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal   `gorm:"type:numeric(20,2)" json:"max_amount,omitempty"`
	IsActive  bool               `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
