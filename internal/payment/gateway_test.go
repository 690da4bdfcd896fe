package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedParams(secret string, params map[string]string) map[string]string {
	params["signature"] = signParams(secret, params)
	return params
}

func TestSignParamsDeterministicAndOrderIndependent(t *testing.T) {
	a := signParams("secret", map[string]string{"amount": "50", "status": "success", "trx_id": "T1"})
	b := signParams("secret", map[string]string{"trx_id": "T1", "status": "success", "amount": "50"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, signParams("other", map[string]string{"amount": "50", "status": "success", "trx_id": "T1"}))
}

func TestVerifySignatureExcludesSignatureKey(t *testing.T) {
	params := signedParams("secret", map[string]string{"amount": "50", "status": "success"})
	assert.True(t, verifySignature("secret", params))

	params["amount"] = "500"
	assert.False(t, verifySignature("secret", params))
}

func TestRegistryLookup(t *testing.T) {
	card := NewCardGateway("https://example.com", "sk_test", zap.NewNop())
	registry := NewRegistry(card)

	got, err := registry.Get("card")
	require.NoError(t, err)
	assert.Equal(t, "card", got.Name())

	_, err = registry.Get("paypal")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
}

func TestWalletCreateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "api-key", r.FormValue("api_key"))
		assert.Equal(t, "50.00", r.FormValue("amount"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": true, "payment_url": "https://pay.example.com/checkout/TRX123", "trx_id": "TRX123"}`))
	}))
	defer srv.Close()

	g := NewWalletGateway(srv.URL, "api-key", "cb-secret", "https://site.example.com", zap.NewNop())
	charge, err := g.CreateCharge(context.Background(), ChargeRequest{Amount: 50, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "TRX123", charge.TransactionID)
	assert.Equal(t, "https://pay.example.com/checkout/TRX123", charge.PaymentURL)
}

func TestWalletCreateChargeTransactionIDFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": true, "payment_url": "https://pay.example.com/checkout/TRX456"}`))
	}))
	defer srv.Close()

	g := NewWalletGateway(srv.URL, "api-key", "cb-secret", "https://site.example.com", zap.NewNop())
	charge, err := g.CreateCharge(context.Background(), ChargeRequest{Amount: 10, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "TRX456", charge.TransactionID)
}

func TestWalletCreateChargeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": false, "message": "invalid api key"}`))
	}))
	defer srv.Close()

	g := NewWalletGateway(srv.URL, "bad-key", "cb-secret", "https://site.example.com", zap.NewNop())
	_, err := g.CreateCharge(context.Background(), ChargeRequest{Amount: 10, Currency: "USD"})
	assert.ErrorIs(t, err, ErrChargeFailed)
}

func TestWalletVerifyCallback(t *testing.T) {
	g := NewWalletGateway("https://example.com", "api-key", "cb-secret", "https://site.example.com", zap.NewNop())

	params := signedParams("cb-secret", map[string]string{
		"status": "success",
		"amount": "50",
		"trx_id": "TRX123",
	})
	v, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Equal(t, "TRX123", v.TransactionID)
	assert.InDelta(t, 50.0, v.Amount, 1e-9)

	// Status variants the aggregator sends.
	completed := signedParams("cb-secret", map[string]string{"status": "Completed", "trx_id": "T2", "amount": "5"})
	v, err = g.VerifyCallback(completed)
	require.NoError(t, err)
	assert.True(t, v.Success)

	cancelled := signedParams("cb-secret", map[string]string{"status": "cancelled", "trx_id": "T3", "amount": "5"})
	v, err = g.VerifyCallback(cancelled)
	require.NoError(t, err)
	assert.False(t, v.Success)
}

func TestWalletVerifyCallbackBadSignature(t *testing.T) {
	g := NewWalletGateway("https://example.com", "api-key", "cb-secret", "https://site.example.com", zap.NewNop())

	params := signedParams("wrong-secret", map[string]string{"status": "success", "trx_id": "T1"})
	_, err := g.VerifyCallback(params)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCardCreateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		// 12.34 becomes 1234 minor units.
		assert.Equal(t, "1234", r.FormValue("amount"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "pi_123", "client_secret": "pi_123_secret", "status": "requires_payment_method"}`))
	}))
	defer srv.Close()

	g := NewCardGateway(srv.URL, "sk_test", zap.NewNop())
	charge, err := g.CreateCharge(context.Background(), ChargeRequest{Amount: 12.34, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", charge.TransactionID)
	assert.Equal(t, "pi_123_secret", charge.ClientSecret)
}
