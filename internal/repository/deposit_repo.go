package repository

import (
	"context"
	"errors"

	"github.com/brokerlite/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDepositNotFound        = errors.New("deposit not found")
	ErrDuplicateTransactionID = errors.New("transaction id already exists")
)

// DepositRepository handles deposit data access
type DepositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new DepositRepository
func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create persists a new pending deposit. The unique index on transaction_id
// is the idempotency guard; a duplicate returns ErrDuplicateTransactionID.
func (r *DepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	if err := r.db.WithContext(ctx).Create(deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransactionID
		}
		return err
	}
	return nil
}

// GetByID retrieves a deposit by ID
func (r *DepositRepository) GetByID(ctx context.Context, id uint) (*models.Deposit, error) {
	var deposit models.Deposit
	result := r.db.WithContext(ctx).First(&deposit, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, result.Error
	}
	return &deposit, nil
}

// GetByTransactionID retrieves a deposit by its idempotency key
func (r *DepositRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Deposit, error) {
	var deposit models.Deposit
	result := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&deposit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, result.Error
	}
	return &deposit, nil
}

// ListByUser retrieves deposits for a user, newest first, optionally
// filtered by status.
func (r *DepositRepository) ListByUser(ctx context.Context, userID string, status models.DepositStatus, limit, offset int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	result := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&deposits)
	return deposits, result.Error
}

// Reconcile transitions a pending deposit to the given terminal status and,
// for completions, credits the real balance in the same transaction. The
// transition is a single conditional update keyed by transactionID, so
// replaying a completion callback any number of times credits exactly once:
// subsequent calls find the row already terminal and return alreadyDone.
func (r *DepositRepository) Reconcile(ctx context.Context, transactionID string, to models.DepositStatus) (deposit *models.Deposit, alreadyDone bool, err error) {
	if !to.Terminal() {
		return nil, false, errors.New("reconcile target must be a terminal status")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Deposit{}).
			Where("transaction_id = ? AND status = ?", transactionID, models.DepositStatusPending).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}

		var d models.Deposit
		if err := tx.Where("transaction_id = ?", transactionID).First(&d).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDepositNotFound
			}
			return err
		}
		deposit = &d

		if result.RowsAffected == 0 {
			// Already in a terminal state: treat the replay as a no-op.
			alreadyDone = true
			return nil
		}

		if to == models.DepositStatusCompleted {
			return creditTx(tx, d.UserID, ColumnRealBalance, d.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return deposit, alreadyDone, nil
}
