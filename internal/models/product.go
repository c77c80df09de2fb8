package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a merchant inventory line. Stock is decremented best-effort
// after a cart payment commits; it never blocks or unwinds the payment.
type Product struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	MerchantWalletID uint            `gorm:"not null;index" json:"merchant_wallet_id"`
	Name             string          `gorm:"not null" json:"name"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"unit_price"`
	Stock            int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
