package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/pkg/response"
)

func TestAuthRequired(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{"/api/v1/balance", "/api/v1/deposits", "/api/v1/withdrawals", "/api/v1/trades"} {
		w, resp := doRequest(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.False(t, resp.Success, path)
		assert.Equal(t, response.CodeUnauthorized, resp.Code, path)
	}

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/balance", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarketDataEnvelope(t *testing.T) {
	router := setupRouter(t)

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/market-data", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/market-data?symbol=NoSuchAsset", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, router, http.MethodGet, "/api/v1/market-data?symbol=Apple", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Success   bool            `json:"success"`
		Data      marketdataQuote `json:"data"`
		Timestamp int64           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.NotZero(t, payload.Timestamp)
	assert.Equal(t, "Apple", payload.Data.Symbol)
	assert.Greater(t, payload.Data.Price, 0.0)
	assert.True(t, payload.Data.IsMock)
}

func TestMarketDataBatch(t *testing.T) {
	router := setupRouter(t)

	w, _ := doRequest(t, router, http.MethodGet, "/api/v1/market-data?symbols=Apple,Bitcoin,NoSuchAsset", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Success bool                       `json:"success"`
		Data    map[string]marketdataQuote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Len(t, payload.Data, 3)
}

type marketdataQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	IsMock bool    `json:"isMock"`
}

func TestBalanceLifecycle(t *testing.T) {
	router := setupRouter(t)

	// Not provisioned yet.
	w, resp := doRequest(t, router, http.MethodGet, "/api/v1/balance", "token-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeBalanceNotFound, resp.Code)

	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/balance", "token-1", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var balance models.Balance
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.Equal(t, models.DefaultPracticeBalance, balance.Balance)
	assert.Equal(t, models.DefaultCurrency, balance.Currency)

	// Provisioning twice conflicts.
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/balance", "token-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeBalanceExists, resp.Code)

	// Partial update.
	w, resp = doRequest(t, router, http.MethodPut, "/api/v1/balance", "token-1", map[string]interface{}{
		"balance": 9000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.InDelta(t, 9000.0, balance.Balance, 1e-9)

	// Addressing another user's row is rejected.
	w, _ = doRequest(t, router, http.MethodPut, "/api/v1/balance", "token-1", map[string]interface{}{
		"balance": 1,
		"userId":  "user-2",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDepositFlow(t *testing.T) {
	router := setupRouter(t)

	_, _ = doRequest(t, router, http.MethodPost, "/api/v1/balance", "token-1", nil)

	create := map[string]interface{}{
		"amount":        50,
		"paymentMethod": "card",
		"transactionId": "tx-1",
	}
	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/deposits", "token-1", create)
	require.Equal(t, http.StatusCreated, w.Code)

	var deposit models.Deposit
	require.NoError(t, json.Unmarshal(resp.Data, &deposit))
	assert.Equal(t, models.DepositStatusPending, deposit.Status)

	// Same transaction id conflicts, even for another user.
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/deposits", "token-2", create)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeDuplicateTransactionID, resp.Code)

	// Complete it, then replay the completion.
	for i := 0; i < 3; i++ {
		w, resp = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/v1/deposits/%d", deposit.ID), "token-1",
			map[string]interface{}{"status": "completed"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(resp.Data, &deposit))
		assert.Equal(t, models.DepositStatusCompleted, deposit.Status)
	}

	// Credited exactly once.
	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/balance", "token-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var balance models.Balance
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.InDelta(t, 50.0, balance.RealBalance, 1e-9)

	// Another user cannot touch the deposit.
	w, _ = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/v1/deposits/%d", deposit.ID), "token-2",
		map[string]interface{}{"status": "failed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWithdrawalFlow(t *testing.T) {
	router := setupRouter(t)

	_, _ = doRequest(t, router, http.MethodPost, "/api/v1/balance", "token-1", nil)

	// Fund via deposit completion.
	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/deposits", "token-1", map[string]interface{}{
		"amount":        50,
		"paymentMethod": "card",
		"transactionId": "tx-fund",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var deposit models.Deposit
	require.NoError(t, json.Unmarshal(resp.Data, &deposit))
	w, _ = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/v1/deposits/%d", deposit.ID), "token-1",
		map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)

	// Instant method settles immediately.
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/withdrawals", "token-1", map[string]interface{}{
		"amount": 30,
		"method": "upi",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var withdrawal models.Withdrawal
	require.NoError(t, json.Unmarshal(resp.Data, &withdrawal))
	assert.Equal(t, models.WithdrawalStatusCompleted, withdrawal.Status)
	assert.NotEmpty(t, withdrawal.ReferenceID)

	// 20 left, 25 must fail atomically.
	w, resp = doRequest(t, router, http.MethodPost, "/api/v1/withdrawals", "token-1", map[string]interface{}{
		"amount": 25,
		"method": "upi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeInsufficientFunds, resp.Code)

	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/balance", "token-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var balance models.Balance
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.InDelta(t, 20.0, balance.RealBalance, 1e-9)
}

func TestTradeFlow(t *testing.T) {
	router := setupRouter(t)

	_, _ = doRequest(t, router, http.MethodPost, "/api/v1/balance", "token-1", nil)

	w, resp := doRequest(t, router, http.MethodPost, "/api/v1/trades", "token-1", map[string]interface{}{
		"assetName":  "Bitcoin",
		"assetType":  "crypto",
		"direction":  "buy",
		"amount":     100,
		"entryPrice": 65000,
		"quantity":   0.001,
		"leverage":   10,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var trade models.Trade
	require.NoError(t, json.Unmarshal(resp.Data, &trade))
	assert.Equal(t, models.TradeStatusOpen, trade.Status)

	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/trades", "token-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var open []models.Trade
	require.NoError(t, json.Unmarshal(resp.Data, &open))
	assert.Len(t, open, 1)

	// Another user cannot close it.
	w, _ = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/trades/%d", trade.ID), "token-2",
		map[string]interface{}{"exitPrice": 66000})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/trades/%d", trade.ID), "token-1",
		map[string]interface{}{"exitPrice": 66000})
	require.Equal(t, http.StatusOK, w.Code)
	var history models.TradingHistory
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.InDelta(t, 10.0, history.PnL, 1e-9)

	// Closing again observes the row gone.
	w, resp = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/trades/%d", trade.ID), "token-1",
		map[string]interface{}{"exitPrice": 66000})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeTradeNotFound, resp.Code)

	w, resp = doRequest(t, router, http.MethodGet, "/api/v1/trading-history", "token-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.TradingHistory
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	assert.Len(t, listed, 1)
}
