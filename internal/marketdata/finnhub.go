package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FinnhubClient fetches stock, forex and index quotes from the Finnhub API.
type FinnhubClient struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewFinnhubClient creates a Finnhub quote client.
func NewFinnhubClient(baseURL, apiKey string, rps float64, burst int, logger *zap.Logger) *FinnhubClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)

	return &FinnhubClient{
		client:  client,
		apiKey:  apiKey,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name implements QuoteProvider.
func (c *FinnhubClient) Name() ProviderName {
	return ProviderFinnhub
}

// finnhubQuote is the Finnhub /quote response.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Open          float64 `json:"o"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote implements QuoteProvider.
func (c *FinnhubClient) Quote(ctx context.Context, asset AssetConfig) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var result finnhubQuote
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", asset.APISymbol).
		SetQueryParam("token", c.apiKey).
		SetResult(&result).
		Get("/quote")
	if err != nil {
		return nil, fmt.Errorf("finnhub request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finnhub returned status %d for %s", resp.StatusCode(), asset.APISymbol)
	}
	// Finnhub reports unknown symbols as an all-zero quote.
	if result.Current == 0 {
		return nil, fmt.Errorf("finnhub returned empty quote for %s", asset.APISymbol)
	}

	change := result.Current - result.PreviousClose
	changePercent := 0.0
	if result.PreviousClose != 0 {
		changePercent = change / result.PreviousClose * 100
	}

	timestamp := result.Timestamp * 1000
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	q := &Quote{
		Symbol:        asset.Name,
		Name:          asset.Name,
		Price:         result.Current,
		Change:        change,
		ChangePercent: changePercent,
		High:          result.High,
		Low:           result.Low,
		Open:          result.Open,
		PreviousClose: result.PreviousClose,
		Timestamp:     timestamp,
		IsMock:        false,
	}
	q.applySpread(asset.Type)
	return q, nil
}
