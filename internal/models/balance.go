package models

import (
	"time"
)

// Default balances assigned at account provisioning.
const (
	DefaultPracticeBalance = 10000.00
	DefaultRealBalance     = 0.00
	DefaultCurrency        = "USD"
)

// AccountType selects which bucket of funds a trade settles against.
type AccountType string

const (
	AccountTypePractice AccountType = "practice"
	AccountTypeReal     AccountType = "real"
)

// Valid reports whether the account type is one of the known values.
func (t AccountType) Valid() bool {
	return t == AccountTypePractice || t == AccountTypeReal
}

// Balance is the per-user ledger row: practice funds and real funds.
// RealBalance must never go negative; every debit goes through the
// conditional update in the repository, nothing else writes these columns.
type Balance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"uniqueIndex;size:64;not null" json:"user_id"`
	Balance     float64   `gorm:"type:decimal(20,8);not null;default:10000" json:"balance"`
	RealBalance float64   `gorm:"type:decimal(20,8);not null;default:0" json:"real_balance"`
	Currency    string    `gorm:"size:10;not null;default:'USD'" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Balance model
func (Balance) TableName() string {
	return "user_balances"
}
