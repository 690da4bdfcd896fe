package models

import (
	"time"
)

// DepositStatus represents the deposit reconciliation state.
// Transitions are one-way: pending -> completed or pending -> failed.
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusFailed    DepositStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s DepositStatus) Valid() bool {
	return s == DepositStatusPending || s == DepositStatusCompleted || s == DepositStatusFailed
}

// Terminal reports whether the status permits no further transitions.
func (s DepositStatus) Terminal() bool {
	return s == DepositStatusCompleted || s == DepositStatusFailed
}

// PaymentMethods accepted at deposit creation.
var PaymentMethods = []string{"card", "crypto", "bank_transfer", "wallet"}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Deposit is a payment-gateway funded credit to the real balance.
// TransactionID is the idempotency key: the gateway may deliver the
// completion callback any number of times, the ledger is credited once.
type Deposit struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        string        `gorm:"index;size:64;not null" json:"user_id"`
	Amount        float64       `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency      string        `gorm:"size:10;not null;default:'USD'" json:"currency"`
	PaymentMethod string        `gorm:"size:30;not null" json:"payment_method"`
	Status        DepositStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	TransactionID string        `gorm:"uniqueIndex;size:100;not null" json:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TableName specifies the table name for Deposit model
func (Deposit) TableName() string {
	return "deposits"
}
