package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brokerlite/internal/models"
	"gorm.io/gorm"
)

var (
	ErrBalanceNotFound = errors.New("balance not found")
	ErrBalanceExists   = errors.New("balance already exists")
)

// Ledger columns. The practice and real buckets share the same conditional
// update machinery; only the column differs.
const (
	ColumnRealBalance     = "real_balance"
	ColumnPracticeBalance = "balance"
)

// BalanceRepository handles ledger row access. These are the only code paths
// that write balance columns; concurrency control is the store's conditional
// update, not application locks.
type BalanceRepository struct {
	db *gorm.DB
}

// NewBalanceRepository creates a new BalanceRepository
func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Provision creates the ledger row for a user with default balances.
// Returns ErrBalanceExists when the row already exists.
func (r *BalanceRepository) Provision(ctx context.Context, userID string) (*models.Balance, error) {
	balance := &models.Balance{
		UserID:      userID,
		Balance:     models.DefaultPracticeBalance,
		RealBalance: models.DefaultRealBalance,
		Currency:    models.DefaultCurrency,
	}
	if err := r.db.WithContext(ctx).Create(balance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBalanceExists
		}
		return nil, err
	}
	return balance, nil
}

// GetByUserID retrieves the ledger row for a user
func (r *BalanceRepository) GetByUserID(ctx context.Context, userID string) (*models.Balance, error) {
	var balance models.Balance
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, result.Error
	}
	return &balance, nil
}

// UpdateFields applies a partial update (balance/real_balance/currency) to
// the user's ledger row. Returns ErrBalanceNotFound when no row exists.
func (r *BalanceRepository) UpdateFields(ctx context.Context, userID string, updates map[string]interface{}) (*models.Balance, error) {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Balance{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrBalanceNotFound
	}
	return r.GetByUserID(ctx, userID)
}

// Credit unconditionally adds amount to the given balance column. The guard
// is row existence only: returns ErrBalanceNotFound when the user has no
// ledger row (rows are provisioned explicitly, never implicitly).
func (r *BalanceRepository) Credit(ctx context.Context, userID, column string, amount float64) error {
	return creditTx(r.db.WithContext(ctx), userID, column, amount)
}

// DebitIfSufficient decrements the given balance column only when its
// current value covers the amount, as a single conditional update. Returns
// false without mutation when funds are insufficient. Two concurrent debits
// can never both pass the balance check on stale reads.
func (r *BalanceRepository) DebitIfSufficient(ctx context.Context, userID, column string, amount float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Balance{}).
		Where("user_id = ? AND "+column+" >= ?", userID, amount).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// creditTx is the credit statement, reusable inside transactions.
func creditTx(tx *gorm.DB, userID, column string, amount float64) error {
	result := tx.
		Model(&models.Balance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" + ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBalanceNotFound
	}
	return nil
}
