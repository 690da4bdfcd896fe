package repository

import (
	"context"
	"errors"

	"github.com/brokerlite/internal/models"
	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
)

// WithdrawalRepository handles withdrawal data access
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates a new WithdrawalRepository
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create persists a withdrawal record. Callers must have debited the ledger
// first; a row never exists for funds that were not locked.
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

// GetByID retrieves a withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	result := r.db.WithContext(ctx).First(&withdrawal, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, result.Error
	}
	return &withdrawal, nil
}

// ListByUserPaginated retrieves withdrawals for a user with pagination,
// newest first.
func (r *WithdrawalRepository) ListByUserPaginated(ctx context.Context, userID string, page, pageSize int) ([]models.Withdrawal, int64, error) {
	var withdrawals []models.Withdrawal
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&withdrawals)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return withdrawals, total, nil
}

// UpdateStatusFrom moves a withdrawal from one payout state to another as a
// single conditional update. Returns ErrWithdrawalNotFound when the row is
// missing or no longer in the expected state, so two concurrent transitions
// can never both succeed.
func (r *WithdrawalRepository) UpdateStatusFrom(ctx context.Context, id uint, from, to models.WithdrawalStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}
