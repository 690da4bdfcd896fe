package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
	"github.com/brokerlite/pkg/response"
)

// TradeHandler handles trading API requests
type TradeHandler struct {
	tradingService *service.TradingService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradingService *service.TradingService) *TradeHandler {
	return &TradeHandler{tradingService: tradingService}
}

// OpenTrade opens a new position
// POST /api/v1/trades
func (h *TradeHandler) OpenTrade(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req service.OpenTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	trade, err := h.tradingService.Open(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDirection),
			errors.Is(err, service.ErrInvalidAssetType),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidLeverage),
			errors.Is(err, service.ErrInvalidAccountType):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, trade)
}

// ListTrades lists the user's open positions
// GET /api/v1/trades?accountType=real&assetType=crypto
func (h *TradeHandler) ListTrades(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)

	filter := repository.TradeFilter{
		AccountType: models.AccountType(c.Query("accountType")),
		AssetType:   c.Query("assetType"),
	}
	if filter.AccountType != "" && !filter.AccountType.Valid() {
		response.BadRequest(c, response.CodeValidation, "invalid account type")
		return
	}

	trades, err := h.tradingService.ListOpen(c.Request.Context(), userID, filter, limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Success(c, trades)
}

// UpdateTrade applies live-field changes to an open position
// PUT /api/v1/trades/:id
func (h *TradeHandler) UpdateTrade(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, response.CodeValidation, "invalid trade id")
		return
	}

	var req service.UpdateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	trade, err := h.tradingService.Update(c.Request.Context(), userID, uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTradeNotFound):
			response.NotFound(c, response.CodeTradeNotFound, "trade not found")
		case errors.Is(err, service.ErrTradeNotOwned):
			response.Forbidden(c, "trade belongs to another user")
		case errors.Is(err, service.ErrInvalidPrice):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Success(c, trade)
}

type closeTradeRequest struct {
	ExitPrice float64  `json:"exitPrice" binding:"required,gt=0"`
	PnL       *float64 `json:"pnl"`
}

// CloseTrade closes an open position, settles pnl and moves it to history
// DELETE /api/v1/trades/:id
func (h *TradeHandler) CloseTrade(c *gin.Context) {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, response.CodeValidation, "invalid trade id")
		return
	}

	var req closeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, err.Error())
		return
	}

	history, err := h.tradingService.Close(c.Request.Context(), userID, uint(id), req.ExitPrice, req.PnL)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTradeNotFound):
			response.NotFound(c, response.CodeTradeNotFound, "trade not found or already closed")
		case errors.Is(err, service.ErrTradeNotOwned):
			response.Forbidden(c, "trade belongs to another user")
		case errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrPnLMismatch):
			response.BadRequest(c, response.CodeValidation, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}
	response.Success(c, history)
}

// GetTradingHistory lists the user's closed trades, newest first
// GET /api/v1/trading-history
func (h *TradeHandler) GetTradingHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)

	history, err := h.tradingService.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Success(c, history)
}
