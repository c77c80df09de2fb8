package settlement

import (
	"moneta/internal/models"

	"github.com/shopspring/decimal"
)

// Request describes a single money movement. Action selects the commission
// rules to apply; an empty Action settles without commission (refunds,
// bonuses).
type Request struct {
	SenderWalletID   uint
	ReceiverWalletID uint
	Amount           decimal.Decimal
	Type             string
	Action           string
	Audiences        []models.CommissionAudience
	ScheduledType    string
	Cart             models.Cart
	Reference        string
	Description      string
	Metadata         models.JSON
	IdempotencyKey   string
}

// Config holds settlement configuration.
type Config struct {
	// PlatformWalletID receives all collected commissions.
	PlatformWalletID uint
}

// Metadata keys recognized by the orchestrator.
const (
	MetadataReferrerWalletID = "referrer_wallet_id"
)
