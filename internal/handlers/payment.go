package handlers

import (
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services/settlement"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	settlementService settlement.Service
}

func NewPaymentHandler(settlementSvc settlement.Service) *PaymentHandler {
	return &PaymentHandler{settlementService: settlementSvc}
}

// Pay settles a cart payment to a merchant wallet. Payments earn rewards,
// decrement merchant stock and can carry a referrer for the one-time
// referral bonus.
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		MerchantWalletID uint            `json:"merchant_wallet_id"`
		Amount           decimal.Decimal `json:"amount"`
		Cart             models.Cart     `json:"cart"`
		Description      string          `json:"description"`
		ReferrerWalletID uint            `json:"referrer_wallet_id"`
		IdempotencyKey   string          `json:"idempotency_key"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.MerchantWalletID == 0 {
		return response.BadRequest(c, "Merchant wallet is required")
	}

	amount := input.Amount
	if len(input.Cart) > 0 {
		// The cart is authoritative when present.
		amount = input.Cart.Total()
	}

	var metadata models.JSON
	if input.ReferrerWalletID != 0 {
		metadata = models.JSON{settlement.MetadataReferrerWalletID: input.ReferrerWalletID}
	}

	tx, err := h.settlementService.Settle(c.Context(), settlement.Request{
		SenderWalletID:   claims.WalletID,
		ReceiverWalletID: input.MerchantWalletID,
		Amount:           amount,
		Type:             models.TransactionTypePayment,
		Action:           models.ActionQRPayment,
		Audiences:        []models.CommissionAudience{models.AudienceUser, models.AudienceMerchant},
		Cart:             input.Cart,
		Description:      input.Description,
		Metadata:         metadata,
		IdempotencyKey:   input.IdempotencyKey,
	})
	if err != nil {
		return settlementError(c, err)
	}
	return response.Success(c, "Payment successful", tx)
}
