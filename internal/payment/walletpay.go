package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WalletGateway is the regional wallet-aggregator driver. It is a redirect
// gateway: the charge returns a hosted payment URL and the aggregator calls
// back with the outcome.
type WalletGateway struct {
	client         *resty.Client
	apiKey         string
	callbackSecret string
	siteURL        string
	logger         *zap.Logger
}

// NewWalletGateway creates a wallet-aggregator gateway client.
func NewWalletGateway(baseURL, apiKey, callbackSecret, siteURL string, logger *zap.Logger) *WalletGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)

	return &WalletGateway{
		client:         client,
		apiKey:         apiKey,
		callbackSecret: callbackSecret,
		siteURL:        siteURL,
		logger:         logger,
	}
}

// Name implements Gateway.
func (g *WalletGateway) Name() string {
	return "wallet"
}

type walletCheckoutResponse struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url"`
	TrxID      string `json:"trx_id"`
}

// CreateCharge implements Gateway. The aggregator expects form-encoded
// payloads and responds with a hosted checkout URL.
func (g *WalletGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var result walletCheckoutResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key":     g.apiKey,
			"amount":      strconv.FormatFloat(req.Amount, 'f', 2, 64),
			"currency":    req.Currency,
			"fullname":    req.CustomerName,
			"email":       req.CustomerEmail,
			"success_url": g.siteURL + "/api/v1/payments/wallet/callback",
			"cancel_url":  g.siteURL + "/trade?payment=cancelled",
			"webhook_url": g.siteURL + "/api/v1/payments/wallet/callback",
		}).
		SetResult(&result).
		Post("/payment/checkout")
	if err != nil {
		return nil, fmt.Errorf("wallet gateway request failed: %w", err)
	}
	if resp.IsError() || !result.Status || result.PaymentURL == "" {
		g.logger.Warn("wallet gateway rejected charge",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", result.Message))
		return nil, ErrChargeFailed
	}

	transactionID := result.TrxID
	if transactionID == "" {
		// Some aggregator responses omit trx_id; the hosted URL ends with it.
		parts := strings.Split(strings.TrimRight(result.PaymentURL, "/"), "/")
		transactionID = parts[len(parts)-1]
	}

	return &Charge{
		TransactionID: transactionID,
		PaymentURL:    result.PaymentURL,
	}, nil
}

// VerifyCallback implements Gateway.
func (g *WalletGateway) VerifyCallback(params map[string]string) (*Verification, error) {
	if !verifySignature(g.callbackSecret, params) {
		return nil, ErrInvalidSignature
	}

	status := params["status"]
	amount, _ := strconv.ParseFloat(params["amount"], 64)
	transactionID := params["trx_id"]
	if transactionID == "" {
		transactionID = params["transaction_id"]
	}

	return &Verification{
		Success:       status == "success" || status == "Completed",
		TransactionID: transactionID,
		Amount:        amount,
	}, nil
}
