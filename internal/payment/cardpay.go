package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// CardGateway is the card-processor driver. Charges are payment intents:
// the client confirms them browser-side with the returned client secret,
// and the processor delivers a signed webhook on settlement.
type CardGateway struct {
	client    *resty.Client
	secretKey string
	logger    *zap.Logger
}

// NewCardGateway creates a card-processor gateway client.
func NewCardGateway(baseURL, secretKey string, logger *zap.Logger) *CardGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetAuthToken(secretKey)

	return &CardGateway{
		client:    client,
		secretKey: secretKey,
		logger:    logger,
	}
}

// Name implements Gateway.
func (g *CardGateway) Name() string {
	return "card"
}

type paymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreateCharge implements Gateway. Amounts are sent in minor units.
func (g *CardGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var result paymentIntentResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":         strconv.FormatInt(int64(math.Round(req.Amount*100)), 10),
			"currency":       req.Currency,
			"receipt_email":  req.CustomerEmail,
			"description":    "deposit for " + req.CustomerName,
			"payment_method": "card",
		}).
		SetResult(&result).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("card gateway request failed: %w", err)
	}
	if resp.IsError() || result.ID == "" {
		g.logger.Warn("card gateway rejected charge",
			zap.Int("status", resp.StatusCode()),
			zap.Float64("amount", req.Amount))
		return nil, ErrChargeFailed
	}

	return &Charge{
		TransactionID: result.ID,
		ClientSecret:  result.ClientSecret,
	}, nil
}

// VerifyCallback implements Gateway. The webhook payload carries the intent
// id, final status and amount, signed with the processor secret.
func (g *CardGateway) VerifyCallback(params map[string]string) (*Verification, error) {
	if !verifySignature(g.secretKey, params) {
		return nil, ErrInvalidSignature
	}

	amount, _ := strconv.ParseFloat(params["amount"], 64)
	return &Verification{
		Success:       params["status"] == "succeeded",
		TransactionID: params["payment_intent"],
		Amount:        amount,
	}, nil
}
