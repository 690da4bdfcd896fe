package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brokerlite/internal/models"
)

// setupTestDB opens a per-test in-memory database. A single connection
// serializes concurrent access, which is what the conditional-update tests
// rely on to exercise real write contention.
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
