package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brokerlite/internal/auth"
	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/payment"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
)

// stubResolver maps bearer tokens to user ids without real JWT parsing.
type stubResolver map[string]string

func (s stubResolver) ResolveUser(token string) (string, error) {
	if userID, ok := s[token]; ok {
		return userID, nil
	}
	return "", auth.ErrInvalidToken
}

type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	zlog := zap.NewNop()
	balanceRepo := repository.NewBalanceRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	marketService := marketdata.NewService(nil, marketdata.NewSeededMockGenerator(7), nil, time.Second, zlog)
	gateways := payment.NewRegistry()

	ledgerService := service.NewLedgerService(balanceRepo, zlog)
	depositService := service.NewDepositService(depositRepo, gateways, zlog)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, ledgerService, zlog)
	tradingService := service.NewTradingService(tradeRepo, ledgerService, marketService, zlog)

	marketHandler := NewMarketHandler(marketService)
	balanceHandler := NewBalanceHandler(ledgerService)
	depositHandler := NewDepositHandler(depositService)
	withdrawalHandler := NewWithdrawalHandler(withdrawalService)
	tradeHandler := NewTradeHandler(tradingService)

	resolver := stubResolver{"token-1": "user-1", "token-2": "user-2"}

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/market-data", marketHandler.GetQuotes)

	protected := v1.Group("")
	protected.Use(middleware.Auth(resolver))
	protected.GET("/balance", balanceHandler.GetBalance)
	protected.POST("/balance", balanceHandler.CreateBalance)
	protected.PUT("/balance", balanceHandler.UpdateBalance)
	protected.GET("/deposits", depositHandler.ListDeposits)
	protected.POST("/deposits", depositHandler.CreateDeposit)
	protected.PUT("/deposits/:id", depositHandler.ReconcileDeposit)
	protected.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
	protected.POST("/withdrawals", withdrawalHandler.CreateWithdrawal)
	protected.POST("/trades", tradeHandler.OpenTrade)
	protected.GET("/trades", tradeHandler.ListTrades)
	protected.DELETE("/trades/:id", tradeHandler.CloseTrade)
	protected.GET("/trading-history", tradeHandler.GetTradingHistory)

	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}
