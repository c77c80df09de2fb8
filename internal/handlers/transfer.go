package handlers

import (
	"errors"
	"time"

	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services/schedule"
	"moneta/internal/services/settlement"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	settlementService settlement.Service
	scheduleService   schedule.Service
}

func NewTransferHandler(settlementSvc settlement.Service, scheduleSvc schedule.Service) *TransferHandler {
	return &TransferHandler{
		settlementService: settlementSvc,
		scheduleService:   scheduleSvc,
	}
}

// SendMoney handles direct P2P transfers. A schedule_type of "deferred" or
// "planned" queues the transfer instead of settling it immediately.
func (h *TransferHandler) SendMoney(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		ReceiverWalletID uint            `json:"receiver_wallet_id"`
		Amount           decimal.Decimal `json:"amount"`
		ScheduleType     string          `json:"schedule_type"`
		PlannedDate      *time.Time      `json:"planned_date"`
		Description      string          `json:"description"`
		IdempotencyKey   string          `json:"idempotency_key"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.ReceiverWalletID == 0 {
		return response.BadRequest(c, "Receiver wallet is required")
	}

	switch input.ScheduleType {
	case "", models.ScheduledTypeNow:
		tx, err := h.settlementService.Settle(c.Context(), settlement.Request{
			SenderWalletID:   claims.WalletID,
			ReceiverWalletID: input.ReceiverWalletID,
			Amount:           input.Amount,
			Type:             models.TransactionTypeTransfer,
			Action:           models.ActionSendMoney,
			Audiences:        audiencesFor(claims.Role),
			Description:      input.Description,
			IdempotencyKey:   input.IdempotencyKey,
		})
		if err != nil {
			return settlementError(c, err)
		}
		return response.Success(c, "Transfer completed", tx)

	case models.ScheduledTypeDeferred, models.ScheduledTypePlanned:
		st, err := h.scheduleService.Schedule(c.Context(), schedule.ScheduleRequest{
			SenderWalletID:   claims.WalletID,
			ReceiverWalletID: input.ReceiverWalletID,
			Amount:           input.Amount,
			Type:             input.ScheduleType,
			PlannedDate:      input.PlannedDate,
		})
		if err != nil {
			return scheduleError(c, err)
		}
		return response.Created(c, "Transfer scheduled", st)

	default:
		return response.BadRequest(c, "Invalid schedule type")
	}
}

// GetScheduledTransfer returns one queued transfer.
func (h *TransferHandler) GetScheduledTransfer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid transfer id")
	}

	st, err := h.scheduleService.Get(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return response.NotFound(c, "Scheduled transfer not found")
		}
		return response.ServerError(c, "Failed to get scheduled transfer")
	}
	return response.Success(c, "Scheduled transfer", st)
}

func audiencesFor(role string) []models.CommissionAudience {
	if role == models.RoleMerchant {
		return []models.CommissionAudience{models.AudienceMerchant}
	}
	return []models.CommissionAudience{models.AudienceUser}
}

func settlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, settlement.ErrWalletNotFound):
		return response.NotFound(c, "Wallet not found")
	case errors.Is(err, settlement.ErrInsufficientFunds):
		return response.BadRequest(c, "Insufficient funds")
	case errors.Is(err, settlement.ErrWalletLocked):
		return response.Forbidden(c, "Wallet is locked")
	case errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, settlement.ErrSelfTransferNotAllowed),
		errors.Is(err, settlement.ErrInvalidType),
		errors.Is(err, settlement.ErrCommissionExceedsAmount):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Transfer failed")
	}
}

func scheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, schedule.ErrInvalidAmount),
		errors.Is(err, schedule.ErrInvalidType),
		errors.Is(err, schedule.ErrSelfTransfer),
		errors.Is(err, schedule.ErrPlannedDateRequired):
		return response.BadRequest(c, err.Error())
	default:
		return response.ServerError(c, "Failed to schedule transfer")
	}
}
