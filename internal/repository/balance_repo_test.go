package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerlite/internal/models"
)

func TestBalanceProvisionDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	balance, err := repo.Provision(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPracticeBalance, balance.Balance)
	assert.Equal(t, models.DefaultRealBalance, balance.RealBalance)
	assert.Equal(t, models.DefaultCurrency, balance.Currency)

	_, err = repo.Provision(ctx, "user-1")
	assert.ErrorIs(t, err, ErrBalanceExists)
}

func TestBalanceGetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)

	_, err := repo.GetByUserID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrBalanceNotFound)
}

func TestBalanceCreditAndDebit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	_, err := repo.Provision(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, repo.Credit(ctx, "user-1", ColumnRealBalance, 100))

	ok, err := repo.DebitIfSufficient(ctx, "user-1", ColumnRealBalance, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	// 40 left, another 60 must not pass.
	ok, err = repo.DebitIfSufficient(ctx, "user-1", ColumnRealBalance, 60)
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 40.0, balance.RealBalance, 1e-9)
}

func TestBalanceCreditMissingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)

	err := repo.Credit(context.Background(), "nobody", ColumnRealBalance, 10)
	assert.ErrorIs(t, err, ErrBalanceNotFound)
}

// Two concurrent debits of 80 against a balance of 100: exactly one may
// pass, and the final balance must be 20. The conditional update carries
// the whole guarantee, there is no application-side lock.
func TestBalanceConcurrentDebitNoOverdraft(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	_, err := repo.Provision(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, repo.Credit(ctx, "user-1", ColumnRealBalance, 100))

	const attempts = 2
	results := make([]bool, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.DebitIfSufficient(ctx, "user-1", ColumnRealBalance, 80)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, balance.RealBalance, 1e-9)
}

func TestBalanceUpdateFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBalanceRepository(db)
	ctx := context.Background()

	_, err := repo.Provision(ctx, "user-1")
	require.NoError(t, err)

	balance, err := repo.UpdateFields(ctx, "user-1", map[string]interface{}{
		"balance":  5000.0,
		"currency": "EUR",
	})
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, balance.Balance, 1e-9)
	assert.Equal(t, "EUR", balance.Currency)
	// Untouched column keeps its value.
	assert.Equal(t, models.DefaultRealBalance, balance.RealBalance)

	_, err = repo.UpdateFields(ctx, "nobody", map[string]interface{}{"balance": 1.0})
	assert.ErrorIs(t, err, ErrBalanceNotFound)
}
