package refund

import "errors"

// Service errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnauthorizedActor   = errors.New("refund requested by non-receiver")
	ErrAlreadyRefunded     = errors.New("transaction already refunded")
	ErrNotRefundable       = errors.New("transaction is not refundable")
	ErrOverRefund          = errors.New("refund exceeds remaining refundable amount")
	ErrItemNotInCart       = errors.New("item not in original cart")
	ErrInvalidQuantity     = errors.New("invalid refund quantity")
	ErrInvalidAmount       = errors.New("invalid refund amount")
	ErrNoCart              = errors.New("original transaction has no cart")
)
