package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/repository"
)

var (
	ErrInvalidDirection = errors.New("invalid trade direction")
	ErrInvalidAssetType = errors.New("invalid asset type")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidLeverage  = errors.New("invalid leverage")
	ErrTradeNotOwned    = errors.New("trade belongs to another user")
	ErrPnLMismatch      = errors.New("reported pnl does not match recomputation")
)

const (
	maxLeverage = 500

	// pnlTolerance absorbs float rounding between the client's pnl and the
	// server recomputation. Anything larger is rejected.
	pnlTolerance = 0.01
)

// TradingService handles position open, update and close
type TradingService struct {
	tradeRepo *repository.TradeRepository
	ledger    *LedgerService
	market    *marketdata.Service
	logger    *zap.Logger
}

// NewTradingService creates a new TradingService
func NewTradingService(tradeRepo *repository.TradeRepository, ledger *LedgerService, market *marketdata.Service, logger *zap.Logger) *TradingService {
	return &TradingService{
		tradeRepo: tradeRepo,
		ledger:    ledger,
		market:    market,
		logger:    logger,
	}
}

// OpenTradeRequest carries the fields for opening a position.
type OpenTradeRequest struct {
	AssetName   string                `json:"assetName" binding:"required"`
	AssetType   string                `json:"assetType" binding:"required"`
	Direction   models.TradeDirection `json:"direction" binding:"required"`
	Amount      float64               `json:"amount" binding:"required,gt=0"`
	EntryPrice  float64               `json:"entryPrice" binding:"required,gt=0"`
	Quantity    float64               `json:"quantity" binding:"required,gt=0"`
	Leverage    int                   `json:"leverage"`
	StopLoss    *float64              `json:"stopLoss"`
	TakeProfit  *float64              `json:"takeProfit"`
	AccountType models.AccountType    `json:"accountType"`
	Duration    *int                  `json:"duration"` // minutes
}

// UpdateTradeRequest carries the mutable fields of an open position.
type UpdateTradeRequest struct {
	CurrentPrice *float64 `json:"currentPrice"`
	PnL          *float64 `json:"pnl"`
	StopLoss     *float64 `json:"stopLoss"`
	TakeProfit   *float64 `json:"takeProfit"`
}

// Open validates and records a new open position. Timed trades get an
// expiry computed from the duration in minutes.
func (s *TradingService) Open(ctx context.Context, userID string, req *OpenTradeRequest) (*models.Trade, error) {
	if !req.Direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if !models.ValidAssetType(req.AssetType) {
		return nil, ErrInvalidAssetType
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.EntryPrice <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	leverage := req.Leverage
	if leverage == 0 {
		leverage = 1
	}
	if leverage < 1 || leverage > maxLeverage {
		return nil, ErrInvalidLeverage
	}
	accountType := req.AccountType
	if accountType == "" {
		accountType = models.AccountTypePractice
	}
	if !accountType.Valid() {
		return nil, ErrInvalidAccountType
	}

	now := time.Now()
	trade := &models.Trade{
		UserID:       userID,
		AssetName:    req.AssetName,
		AssetType:    req.AssetType,
		Direction:    req.Direction,
		Amount:       req.Amount,
		EntryPrice:   req.EntryPrice,
		CurrentPrice: req.EntryPrice,
		Quantity:     req.Quantity,
		Leverage:     leverage,
		StopLoss:     req.StopLoss,
		TakeProfit:   req.TakeProfit,
		PnL:          0,
		Status:       models.TradeStatusOpen,
		AccountType:  accountType,
		Duration:     req.Duration,
		OpenedAt:     now,
	}
	if req.Duration != nil && *req.Duration > 0 {
		expiresAt := now.Add(time.Duration(*req.Duration) * time.Minute)
		trade.ExpiresAt = &expiresAt
	}

	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// ListOpen returns the user's open positions.
func (s *TradingService) ListOpen(ctx context.Context, userID string, filter repository.TradeFilter, limit, offset int) ([]models.Trade, error) {
	return s.tradeRepo.ListOpenByUser(ctx, userID, filter, limit, offset)
}

// Update applies live-field changes to an open position the user owns.
func (s *TradingService) Update(ctx context.Context, userID string, tradeID uint, req *UpdateTradeRequest) (*models.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.UserID != userID {
		return nil, ErrTradeNotOwned
	}

	updates := map[string]interface{}{}
	if req.CurrentPrice != nil {
		if *req.CurrentPrice <= 0 {
			return nil, ErrInvalidPrice
		}
		updates["current_price"] = *req.CurrentPrice
	}
	if req.PnL != nil {
		updates["pnl"] = *req.PnL
	}
	if req.StopLoss != nil {
		updates["stop_loss"] = *req.StopLoss
	}
	if req.TakeProfit != nil {
		updates["take_profit"] = *req.TakeProfit
	}
	if len(updates) == 0 {
		return trade, nil
	}
	return s.tradeRepo.UpdateFields(ctx, tradeID, updates)
}

// Close closes an open position at exitPrice, settles the realized pnl
// against the account the trade was opened on, and moves the row to
// history. Closing is exactly-once: a concurrent or repeated close finds
// the row gone and gets repository.ErrTradeNotFound. When reportedPnL is
// non-nil it must match the server recomputation within tolerance.
func (s *TradingService) Close(ctx context.Context, userID string, tradeID uint, exitPrice float64, reportedPnL *float64) (*models.TradingHistory, error) {
	if exitPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.UserID != userID {
		return nil, ErrTradeNotOwned
	}

	pnl := trade.ComputePnL(exitPrice)
	if reportedPnL != nil && math.Abs(*reportedPnL-pnl) > pnlTolerance {
		s.logger.Warn("client pnl rejected",
			zap.Uint("trade_id", tradeID),
			zap.Float64("reported", *reportedPnL),
			zap.Float64("computed", pnl))
		return nil, ErrPnLMismatch
	}

	history, err := s.tradeRepo.CloseToHistory(ctx, trade, exitPrice, pnl, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Settle(ctx, userID, trade.AccountType, pnl); err != nil {
		// The position is closed and recorded. Do not undo history over a
		// settlement failure, surface it for reconciliation instead.
		s.logger.Error("trade settlement failed",
			zap.Uint("trade_id", tradeID),
			zap.Float64("pnl", pnl),
			zap.Error(err))
		return nil, err
	}

	return history, nil
}

// CloseExpired closes every trade whose expiry has passed, pricing each at
// the current quote for its asset. Errors on individual trades are logged
// and skipped so one bad row cannot stall the sweep.
func (s *TradingService) CloseExpired(ctx context.Context, now time.Time) int {
	trades, err := s.tradeRepo.ListExpired(ctx, now)
	if err != nil {
		s.logger.Error("expired trade listing failed", zap.Error(err))
		return 0
	}

	closed := 0
	for i := range trades {
		trade := &trades[i]
		quote := s.market.Quote(ctx, trade.AssetName)
		exitPrice := quote.Price
		if exitPrice <= 0 {
			exitPrice = trade.CurrentPrice
		}
		pnl := trade.ComputePnL(exitPrice)

		if _, err := s.tradeRepo.CloseToHistory(ctx, trade, exitPrice, pnl, now); err != nil {
			if !errors.Is(err, repository.ErrTradeNotFound) {
				s.logger.Error("expired trade close failed",
					zap.Uint("trade_id", trade.ID),
					zap.Error(err))
			}
			continue
		}
		if err := s.ledger.Settle(ctx, trade.UserID, trade.AccountType, pnl); err != nil {
			s.logger.Error("expired trade settlement failed",
				zap.Uint("trade_id", trade.ID),
				zap.Float64("pnl", pnl),
				zap.Error(err))
		}
		closed++
	}
	return closed
}

// History returns the user's closed trades, newest first.
func (s *TradingService) History(ctx context.Context, userID string, limit, offset int) ([]models.TradingHistory, error) {
	return s.tradeRepo.ListHistoryByUser(ctx, userID, limit, offset)
}
