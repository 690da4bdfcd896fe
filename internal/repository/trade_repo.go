package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brokerlite/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository handles open-trade and trading-history data access
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create persists a new open trade
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

// GetByID retrieves a trade by ID
func (r *TradeRepository) GetByID(ctx context.Context, id uint) (*models.Trade, error) {
	var trade models.Trade
	result := r.db.WithContext(ctx).First(&trade, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, result.Error
	}
	return &trade, nil
}

// TradeFilter narrows open-trade listings.
type TradeFilter struct {
	AccountType models.AccountType
	AssetType   string
}

// ListOpenByUser retrieves a user's open trades, newest first.
func (r *TradeRepository) ListOpenByUser(ctx context.Context, userID string, filter TradeFilter, limit, offset int) ([]models.Trade, error) {
	var trades []models.Trade
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TradeStatusOpen)
	if filter.AccountType != "" {
		q = q.Where("account_type = ?", filter.AccountType)
	}
	if filter.AssetType != "" {
		q = q.Where("asset_type = ?", filter.AssetType)
	}
	result := q.Order("opened_at DESC").Limit(limit).Offset(offset).Find(&trades)
	return trades, result.Error
}

// ListExpired retrieves open trades whose expiry has passed.
func (r *TradeRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Trade, error) {
	var trades []models.Trade
	result := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.TradeStatusOpen, now).
		Find(&trades)
	return trades, result.Error
}

// UpdateFields applies a partial update to an open trade's live fields.
func (r *TradeRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) (*models.Trade, error) {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ? AND status = ?", id, models.TradeStatusOpen).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTradeNotFound
	}
	return r.GetByID(ctx, id)
}

// CloseToHistory atomically copies the trade into trading_history and
// removes it from the open set. The delete is guarded on the row still
// being open, so a concurrent or repeated close observes ErrTradeNotFound
// and exactly one history row ever exists per trade.
func (r *TradeRepository) CloseToHistory(ctx context.Context, trade *models.Trade, exitPrice, pnl float64, closedAt time.Time) (*models.TradingHistory, error) {
	history := &models.TradingHistory{
		UserID:      trade.UserID,
		TradeID:     trade.ID,
		AssetName:   trade.AssetName,
		AssetType:   trade.AssetType,
		Direction:   trade.Direction,
		Amount:      trade.Amount,
		EntryPrice:  trade.EntryPrice,
		ExitPrice:   exitPrice,
		Quantity:    trade.Quantity,
		Leverage:    trade.Leverage,
		PnL:         pnl,
		AccountType: trade.AccountType,
		OpenedAt:    trade.OpenedAt,
		ClosedAt:    closedAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete first inside the transaction: if the trade was already
		// closed by a concurrent call the guard fails here and the history
		// insert is never visible.
		result := tx.Where("id = ? AND status = ?", trade.ID, models.TradeStatusOpen).
			Delete(&models.Trade{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTradeNotFound
		}
		return tx.Create(history).Error
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// ListHistoryByUser retrieves closed-trade records for a user, newest first.
func (r *TradeRepository) ListHistoryByUser(ctx context.Context, userID string, limit, offset int) ([]models.TradingHistory, error) {
	var history []models.TradingHistory
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("closed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&history)
	return history, result.Error
}

// CountHistoryByTradeID counts history rows for a given source trade.
func (r *TradeRepository) CountHistoryByTradeID(ctx context.Context, tradeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TradingHistory{}).
		Where("trade_id = ?", tradeID).
		Count(&count).Error
	return count, err
}
