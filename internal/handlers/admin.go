package handlers

import (
	"errors"

	"moneta/internal/models"
	"moneta/internal/services/commission"
	"moneta/internal/services/funding"
	"moneta/internal/services/wallet"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AdminHandler groups the operator endpoints: commission rule management,
// funding request review and wallet freezes.
type AdminHandler struct {
	commissionService commission.Service
	fundingService    funding.Service
	walletService     wallet.Service
}

func NewAdminHandler(commissionSvc commission.Service, fundingSvc funding.Service, walletSvc wallet.Service) *AdminHandler {
	return &AdminHandler{
		commissionService: commissionSvc,
		fundingService:    fundingSvc,
		walletService:     walletSvc,
	}
}

// CreateCommissionRule activates a new rule, deactivating the prior rule for
// the same action and audience.
func (h *AdminHandler) CreateCommissionRule(c *fiber.Ctx) error {
	var input struct {
		Action    string                    `json:"action"`
		Audience  models.CommissionAudience `json:"audience"`
		Kind      models.CommissionKind     `json:"kind"`
		Value     decimal.Decimal           `json:"value"`
		MinAmount *decimal.Decimal          `json:"min_amount"`
		MaxAmount *decimal.Decimal          `json:"max_amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	rule := &models.CommissionRule{
		Action:    input.Action,
		Audience:  input.Audience,
		Kind:      input.Kind,
		Value:     input.Value,
		MinAmount: input.MinAmount,
		MaxAmount: input.MaxAmount,
	}
	if err := h.commissionService.CreateRule(c.Context(), rule); err != nil {
		if errors.Is(err, commission.ErrInvalidRule) || errors.Is(err, commission.ErrInvalidBounds) {
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to create rule")
	}
	return response.Created(c, "Commission rule created", rule)
}

// ListCommissionRules returns every rule, active and historical.
func (h *AdminHandler) ListCommissionRules(c *fiber.Ctx) error {
	rules, err := h.commissionService.ListRules(c.Context())
	if err != nil {
		return response.ServerError(c, "Failed to list rules")
	}
	return response.Success(c, "Commission rules", rules)
}

// ApproveWithdrawal settles an approved withdrawal request.
func (h *AdminHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid request id")
	}

	req, err := h.fundingService.ApproveWithdrawal(c.Context(), uint(id))
	if err != nil {
		return fundingError(c, err)
	}
	return response.Success(c, "Withdrawal approved", req)
}

// RejectWithdrawal closes a withdrawal request without moving money.
func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid request id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.fundingService.RejectWithdrawal(c.Context(), uint(id), input.Reason)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Success(c, "Withdrawal rejected", req)
}

// ApproveRecharge settles an approved recharge request.
func (h *AdminHandler) ApproveRecharge(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid request id")
	}

	req, err := h.fundingService.ApproveRecharge(c.Context(), uint(id))
	if err != nil {
		return fundingError(c, err)
	}
	return response.Success(c, "Recharge approved", req)
}

// RejectRecharge closes a recharge request without moving money.
func (h *AdminHandler) RejectRecharge(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid request id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	req, err := h.fundingService.RejectRecharge(c.Context(), uint(id), input.Reason)
	if err != nil {
		return fundingError(c, err)
	}
	return response.Success(c, "Recharge rejected", req)
}

// LockWallet freezes a wallet. All settlements touching it fail until it is
// unlocked.
func (h *AdminHandler) LockWallet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid wallet id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if err := h.walletService.Lock(c.Context(), uint(id), input.Reason); err != nil {
		return walletError(c, err)
	}
	return response.Success(c, "Wallet locked", nil)
}

// UnlockWallet reactivates a frozen wallet.
func (h *AdminHandler) UnlockWallet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid wallet id")
	}

	if err := h.walletService.Unlock(c.Context(), uint(id)); err != nil {
		return walletError(c, err)
	}
	return response.Success(c, "Wallet unlocked", nil)
}
