package handlers

import (
	"errors"

	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services/funding"
	"moneta/internal/services/wallet"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type FundingHandler struct {
	fundingService funding.Service
}

func NewFundingHandler(fundingSvc funding.Service) *FundingHandler {
	return &FundingHandler{fundingService: fundingSvc}
}

// RequestWithdrawal opens a withdrawal request. No balance moves until an
// operator approves it.
func (h *FundingHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		BankDetails models.JSON     `json:"bank_details"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.fundingService.RequestWithdrawal(c.Context(), claims.WalletID, input.Amount, input.BankDetails)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Created(c, "Withdrawal requested", req)
}

// RequestRecharge opens a recharge request against an external payment
// reference.
func (h *FundingHandler) RequestRecharge(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount    decimal.Decimal `json:"amount"`
		Reference string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.fundingService.RequestRecharge(c.Context(), claims.WalletID, input.Amount, input.Reference)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Created(c, "Recharge requested", req)
}

// RequestCardRecharge tokenizes the card and opens a recharge request carrying
// the token as its reference. Raw card data is never persisted.
func (h *FundingHandler) RequestCardRecharge(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount decimal.Decimal     `json:"amount"`
		Card   funding.CardDetails `json:"card"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.fundingService.RequestCardRecharge(c.Context(), claims.WalletID, input.Amount, input.Card)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Created(c, "Recharge requested", req)
}

// DebitMerchantRecharge settles a merchant float top-up debit against the
// caller's merchant wallet.
func (h *FundingHandler) DebitMerchantRecharge(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}
	if claims.Role != models.RoleMerchant {
		return response.Forbidden(c, "Merchant account required")
	}

	var input struct {
		Amount    decimal.Decimal `json:"amount"`
		Reference string          `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	tx, err := h.fundingService.DebitMerchantRecharge(c.Context(), claims.WalletID, input.Amount, input.Reference)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Success(c, "Merchant recharge debited", tx)
}

func fundingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, funding.ErrRequestNotFound):
		return response.NotFound(c, "Request not found")
	case errors.Is(err, funding.ErrWalletNotFound):
		return response.NotFound(c, "Wallet not found")
	case errors.Is(err, funding.ErrAlreadyProcessed):
		return response.Conflict(c, "Request already processed")
	case errors.Is(err, funding.ErrInvalidAmount),
		errors.Is(err, funding.ErrCardTokenization),
		errors.Is(err, wallet.ErrInsufficientFunds):
		return response.BadRequest(c, err.Error())
	default:
		return settlementError(c, err)
	}
}
