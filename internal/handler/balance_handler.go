package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
	"github.com/brokerlite/pkg/response"
)

// BalanceHandler handles balance API requests
type BalanceHandler struct {
	ledger *service.LedgerService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(ledger *service.LedgerService) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

// GetBalance handles balance retrieval
// GET /api/v1/balance
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	balance, err := h.ledger.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			response.NotFound(c, response.CodeBalanceNotFound, "balance not provisioned")
			return
		}
		response.InternalError(c)
		return
	}
	response.Success(c, balance)
}

// CreateBalance handles first-time balance provisioning
// POST /api/v1/balance
func (h *BalanceHandler) CreateBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	balance, err := h.ledger.Provision(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceExists) {
			response.Conflict(c, response.CodeBalanceExists, "balance already provisioned")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, balance)
}

type updateBalanceRequest struct {
	Balance     *float64 `json:"balance"`
	RealBalance *float64 `json:"realBalance"`
	Currency    *string  `json:"currency"`
	UserID      string   `json:"userId"`
}

// UpdateBalance handles partial balance updates. The authenticated user
// is the only addressable row; a client-supplied userId is rejected.
// PUT /api/v1/balance
func (h *BalanceHandler) UpdateBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req updateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}
	if req.UserID != "" && req.UserID != userID {
		response.Forbidden(c, "cannot address another user's balance")
		return
	}

	updates := map[string]interface{}{}
	if req.Balance != nil {
		if *req.Balance < 0 {
			response.BadRequest(c, response.CodeValidation, "balance cannot be negative")
			return
		}
		updates["balance"] = *req.Balance
	}
	if req.RealBalance != nil {
		if *req.RealBalance < 0 {
			response.BadRequest(c, response.CodeValidation, "realBalance cannot be negative")
			return
		}
		updates["real_balance"] = *req.RealBalance
	}
	if req.Currency != nil && *req.Currency != "" {
		updates["currency"] = *req.Currency
	}
	if len(updates) == 0 {
		response.BadRequest(c, response.CodeValidation, "no updatable fields provided")
		return
	}

	balance, err := h.ledger.UpdateFields(c.Request.Context(), userID, updates)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			response.NotFound(c, response.CodeBalanceNotFound, "balance not provisioned")
			return
		}
		response.InternalError(c)
		return
	}
	response.Success(c, balance)
}
