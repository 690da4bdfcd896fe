package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
	"github.com/brokerlite/pkg/response"
)

// WithdrawalHandler handles withdrawal API requests
type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawalService *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// CreateWithdrawal debits the real balance and records the payout request
// POST /api/v1/withdrawals
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	withdrawal, err := h.withdrawalService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBalanceNotFound):
			response.NotFound(c, response.CodeBalanceNotFound, "balance not provisioned")
		case errors.Is(err, service.ErrInsufficientFunds):
			response.BadRequest(c, response.CodeInsufficientFunds, "insufficient real balance")
		case errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInvalidWithdrawalMethod):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, withdrawal)
}

// ListWithdrawals lists the user's withdrawals, newest first
// GET /api/v1/withdrawals
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	withdrawals, total, err := h.withdrawalService.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.SuccessPaginated(c, withdrawals, total, page, pageSize)
}
