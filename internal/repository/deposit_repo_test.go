package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerlite/internal/models"
)

func newPendingDeposit(userID, transactionID string, amount float64) *models.Deposit {
	return &models.Deposit{
		UserID:        userID,
		Amount:        amount,
		Currency:      models.DefaultCurrency,
		PaymentMethod: "card",
		Status:        models.DepositStatusPending,
		TransactionID: transactionID,
	}
}

func TestDepositCreateDuplicateTransactionID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDepositRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newPendingDeposit("user-1", "tx-1", 50)))

	err := repo.Create(ctx, newPendingDeposit("user-2", "tx-1", 75))
	assert.ErrorIs(t, err, ErrDuplicateTransactionID)
}

// Replaying a completion callback any number of times must credit the real
// balance exactly once.
func TestDepositReconcileIdempotent(t *testing.T) {
	db := setupTestDB(t)
	depositRepo := NewDepositRepository(db)
	balanceRepo := NewBalanceRepository(db)
	ctx := context.Background()

	_, err := balanceRepo.Provision(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, depositRepo.Create(ctx, newPendingDeposit("user-1", "tx-1", 50)))

	for i := 0; i < 5; i++ {
		deposit, alreadyDone, err := depositRepo.Reconcile(ctx, "tx-1", models.DepositStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.DepositStatusCompleted, deposit.Status)
		assert.Equal(t, i > 0, alreadyDone)
	}

	balance, err := balanceRepo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, balance.RealBalance, 1e-9)
}

func TestDepositReconcileFailureDoesNotCredit(t *testing.T) {
	db := setupTestDB(t)
	depositRepo := NewDepositRepository(db)
	balanceRepo := NewBalanceRepository(db)
	ctx := context.Background()

	_, err := balanceRepo.Provision(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, depositRepo.Create(ctx, newPendingDeposit("user-1", "tx-1", 50)))

	deposit, alreadyDone, err := depositRepo.Reconcile(ctx, "tx-1", models.DepositStatusFailed)
	require.NoError(t, err)
	assert.False(t, alreadyDone)
	assert.Equal(t, models.DepositStatusFailed, deposit.Status)

	// A late completion callback cannot resurrect a failed deposit.
	deposit, alreadyDone, err = depositRepo.Reconcile(ctx, "tx-1", models.DepositStatusCompleted)
	require.NoError(t, err)
	assert.True(t, alreadyDone)
	assert.Equal(t, models.DepositStatusFailed, deposit.Status)

	balance, err := balanceRepo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRealBalance, balance.RealBalance)
}

func TestDepositReconcileUnknownTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDepositRepository(db)

	_, _, err := repo.Reconcile(context.Background(), "tx-missing", models.DepositStatusCompleted)
	assert.ErrorIs(t, err, ErrDepositNotFound)
}

func TestDepositReconcileRejectsNonTerminal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDepositRepository(db)

	_, _, err := repo.Reconcile(context.Background(), "tx-1", models.DepositStatusPending)
	assert.Error(t, err)
}

func TestDepositListByUserStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDepositRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newPendingDeposit("user-1", "tx-1", 10)))
	require.NoError(t, repo.Create(ctx, newPendingDeposit("user-1", "tx-2", 20)))
	require.NoError(t, repo.Create(ctx, newPendingDeposit("user-2", "tx-3", 30)))

	balanceRepo := NewBalanceRepository(db)
	_, err := balanceRepo.Provision(ctx, "user-1")
	require.NoError(t, err)
	_, _, err = repo.Reconcile(ctx, "tx-2", models.DepositStatusCompleted)
	require.NoError(t, err)

	all, err := repo.ListByUser(ctx, "user-1", "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := repo.ListByUser(ctx, "user-1", models.DepositStatusPending, 50, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "tx-1", pending[0].TransactionID)
}
