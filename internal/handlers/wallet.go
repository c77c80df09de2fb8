package handlers

import (
	"errors"

	"moneta/internal/middleware"
	"moneta/internal/services/wallet"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletSvc wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletSvc}
}

// GetWallet returns the caller's wallet.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.WalletID)
	if err != nil {
		return walletError(c, err)
	}
	return response.Success(c, "Wallet retrieved", w)
}

// GetBalance returns the caller's balance.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	balance, err := h.walletService.GetBalance(c.Context(), claims.WalletID)
	if err != nil {
		return walletError(c, err)
	}
	return response.Success(c, "Balance retrieved", fiber.Map{"balance": balance})
}

// CreateWallet provisions a wallet for the caller. Creation is idempotent.
func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	w, err := h.walletService.CreateWallet(c.Context(), claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to create wallet")
	}
	return response.Created(c, "Wallet created", w)
}

func walletError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		return response.NotFound(c, "Wallet not found")
	case errors.Is(err, wallet.ErrWalletLocked):
		return response.Forbidden(c, "Wallet is locked")
	case errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInvalidAmount):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Wallet operation failed")
	}
}
