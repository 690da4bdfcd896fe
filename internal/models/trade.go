package models

import (
	"time"
)

// TradeDirection represents the direction of a trade
type TradeDirection string

const (
	TradeDirectionBuy  TradeDirection = "buy"
	TradeDirectionSell TradeDirection = "sell"
)

// Valid reports whether the direction is one of the known values.
func (d TradeDirection) Valid() bool {
	return d == TradeDirectionBuy || d == TradeDirectionSell
}

// TradeStatus represents the trade lifecycle state
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

// AssetTypes accepted on trade open.
var AssetTypes = []string{"crypto", "forex", "stocks", "indices", "commodities"}

// ValidAssetType reports whether t is an accepted asset type.
func ValidAssetType(t string) bool {
	for _, v := range AssetTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Trade is an open position. Closing a trade moves it into TradingHistory
// and deletes this row; there is no cancel and no partial close.
type Trade struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"index;size:64;not null" json:"user_id"`
	AssetName    string         `gorm:"size:50;not null;index" json:"asset_name"`
	AssetType    string         `gorm:"size:20;not null" json:"asset_type"`
	Direction    TradeDirection `gorm:"size:10;not null" json:"direction"`
	Amount       float64        `gorm:"type:decimal(20,8);not null" json:"amount"`
	EntryPrice   float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	CurrentPrice float64        `gorm:"type:decimal(20,8);not null" json:"current_price"`
	Quantity     float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`
	Leverage     int            `gorm:"not null;default:1" json:"leverage"`
	StopLoss     *float64       `gorm:"type:decimal(20,8)" json:"stop_loss,omitempty"`
	TakeProfit   *float64       `gorm:"type:decimal(20,8)" json:"take_profit,omitempty"`
	PnL          float64        `gorm:"column:pnl;type:decimal(20,8);not null;default:0" json:"pnl"`
	Status       TradeStatus    `gorm:"size:10;not null;default:'open';index" json:"status"`
	AccountType  AccountType    `gorm:"size:10;not null;default:'practice'" json:"account_type"`
	Duration     *int           `json:"duration,omitempty"` // minutes
	ExpiresAt    *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	OpenedAt     time.Time      `json:"opened_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}

// Expired reports whether a timed trade has passed its expiry.
func (t *Trade) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// ComputePnL recomputes profit/loss for the trade at the given exit price.
func (t *Trade) ComputePnL(exitPrice float64) float64 {
	if t.Direction == TradeDirectionBuy {
		return (exitPrice - t.EntryPrice) * t.Quantity * float64(t.Leverage)
	}
	return (t.EntryPrice - exitPrice) * t.Quantity * float64(t.Leverage)
}

// TradingHistory is the immutable record of a closed trade. Rows are
// append-only and never mutated after creation.
type TradingHistory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"index;size:64;not null" json:"user_id"`
	TradeID     uint           `gorm:"index" json:"trade_id"`
	AssetName   string         `gorm:"size:50;not null" json:"asset_name"`
	AssetType   string         `gorm:"size:20;not null" json:"asset_type"`
	Direction   TradeDirection `gorm:"size:10;not null" json:"direction"`
	Amount      float64        `gorm:"type:decimal(20,8);not null" json:"amount"`
	EntryPrice  float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	ExitPrice   float64        `gorm:"type:decimal(20,8);not null" json:"exit_price"`
	Quantity    float64        `gorm:"type:decimal(20,8);not null" json:"quantity"`
	Leverage    int            `gorm:"not null" json:"leverage"`
	PnL         float64        `gorm:"column:pnl;type:decimal(20,8);not null" json:"pnl"`
	AccountType AccountType    `gorm:"size:10;not null" json:"account_type"`
	OpenedAt    time.Time      `json:"opened_at"`
	ClosedAt    time.Time      `gorm:"index" json:"closed_at"`
}

// TableName specifies the table name for TradingHistory model
func (TradingHistory) TableName() string {
	return "trading_history"
}
