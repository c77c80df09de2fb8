package handlers

import (
	"errors"
	"time"

	"moneta/internal/middleware"
	"moneta/internal/services/statement"
	"moneta/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type StatementHandler struct {
	statementService statement.Service
}

func NewStatementHandler(statementSvc statement.Service) *StatementHandler {
	return &StatementHandler{statementService: statementSvc}
}

// GetStatement rebuilds the caller's statement from the ledger. Optional
// from/to query parameters (RFC 3339) bound the window.
func (h *StatementHandler) GetStatement(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return response.BadRequest(c, "Invalid from date")
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return response.BadRequest(c, "Invalid to date")
	}

	st, err := h.statementService.Statement(c.Context(), claims.WalletID, from, to)
	if err != nil {
		if errors.Is(err, statement.ErrWalletNotFound) {
			return response.NotFound(c, "Wallet not found")
		}
		return response.ServerError(c, "Failed to build statement")
	}
	return response.Success(c, "Statement retrieved", st)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
