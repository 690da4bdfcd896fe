package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Balance{},
		&models.Deposit{},
		&models.Withdrawal{},
		&models.Trade{},
		&models.TradingHistory{},
	))
	return db
}

func newTestLedger(t *testing.T, db *gorm.DB) *LedgerService {
	t.Helper()
	return NewLedgerService(repository.NewBalanceRepository(db), zap.NewNop())
}

// newTestMarket builds a market service with no upstream providers, so
// every quote comes from a seeded mock generator.
func newTestMarket(t *testing.T) *marketdata.Service {
	t.Helper()
	return marketdata.NewService(
		nil,
		marketdata.NewSeededMockGenerator(42),
		nil,
		time.Second,
		zap.NewNop(),
	)
}
