package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line directions
const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

// Line is one statement entry with the balance after applying it.
type Line struct {
	TransactionID  uint            `json:"transaction_id"`
	Type           string          `json:"type"`
	Reference      string          `json:"reference,omitempty"`
	Direction      string          `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Statement is a reconstructed account history for a time window.
type Statement struct {
	WalletID       uint            `json:"wallet_id"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []Line          `json:"lines"`
}
