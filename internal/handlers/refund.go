package handlers

import (
	"errors"

	"moneta/internal/middleware"
	"moneta/internal/services/refund"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RefundHandler struct {
	refundService refund.Service
}

func NewRefundHandler(refundSvc refund.Service) *RefundHandler {
	return &RefundHandler{refundService: refundSvc}
}

// Refund reverses a transaction the caller received. With items it reverses
// specific cart lines; with an amount it reverses an arbitrary partial value;
// with neither it reverses everything still outstanding.
func (h *RefundHandler) Refund(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		TransactionID uint                `json:"transaction_id"`
		Items         []refund.ItemRefund `json:"items"`
		Amount        decimal.Decimal     `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.TransactionID == 0 {
		return response.BadRequest(c, "Transaction id is required")
	}

	var (
		tx  interface{}
		err error
	)
	switch {
	case len(input.Items) > 0:
		tx, err = h.refundService.RefundItems(c.Context(), claims.WalletID, input.TransactionID, input.Items)
	case input.Amount.IsPositive():
		tx, err = h.refundService.RefundManual(c.Context(), claims.WalletID, input.TransactionID, input.Amount)
	default:
		tx, err = h.refundService.Refund(c.Context(), claims.WalletID, input.TransactionID)
	}
	if err != nil {
		return refundError(c, err)
	}
	return response.Success(c, "Refund processed", tx)
}

func refundError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, refund.ErrTransactionNotFound):
		return response.NotFound(c, "Transaction not found")
	case errors.Is(err, refund.ErrUnauthorizedActor):
		return response.Forbidden(c, "Transaction does not belong to you")
	case errors.Is(err, refund.ErrAlreadyRefunded):
		return response.Conflict(c, "Transaction already refunded")
	case errors.Is(err, refund.ErrNotRefundable),
		errors.Is(err, refund.ErrOverRefund),
		errors.Is(err, refund.ErrItemNotInCart),
		errors.Is(err, refund.ErrInvalidQuantity),
		errors.Is(err, refund.ErrInvalidAmount),
		errors.Is(err, refund.ErrNoCart):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Refund failed")
	}
}
