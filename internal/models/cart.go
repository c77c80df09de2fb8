package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartItem is a single purchased line on a cart payment. RefundedQuantity is
// the only field updated after the payment completes.
type CartItem struct {
	ItemID           uint            `json:"item_id"`
	Name             string          `json:"name"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	RefundedQuantity int             `json:"refunded_quantity"`
}

// Remaining returns the quantity still eligible for refund.
func (i CartItem) Remaining() int {
	return i.Quantity - i.RefundedQuantity
}

// Cart is the ordered list of lines attached to a cart payment, stored as jsonb.
type Cart []CartItem

// Total sums unit price times quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// FullyRefunded reports whether every line has been refunded in full.
func (c Cart) FullyRefunded() bool {
	if len(c) == 0 {
		return false
	}
	for _, item := range c {
		if item.Remaining() > 0 {
			return false
		}
	}
	return true
}

// Value implements the driver.Valuer interface
func (c Cart) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface
func (c *Cart) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}
