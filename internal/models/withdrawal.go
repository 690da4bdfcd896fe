package models

import (
	"time"
)

// WithdrawalStatus represents the payout state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// InstantWithdrawalMethod reports whether the method settles immediately
// rather than queueing for manual processing.
func InstantWithdrawalMethod(method string) bool {
	switch method {
	case "upi", "instant_bank", "crypto":
		return true
	}
	return false
}

// Withdrawal records a payout request. A row only ever exists after the
// conditional debit succeeded, so the funds it names are already locked.
type Withdrawal struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        string           `gorm:"index;size:64;not null" json:"user_id"`
	Amount        float64          `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency      string           `gorm:"size:10;not null;default:'USD'" json:"currency"`
	Method        string           `gorm:"size:30;not null" json:"method"`
	Status        WithdrawalStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	PayoutDetails string           `gorm:"size:500" json:"payout_details,omitempty"`
	ReferenceID   string           `gorm:"uniqueIndex;size:50" json:"reference_id"`
	Notes         string           `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Withdrawal model
func (Withdrawal) TableName() string {
	return "withdrawals"
}
