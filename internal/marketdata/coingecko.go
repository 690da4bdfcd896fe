package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CoinGeckoClient fetches crypto quotes from the CoinGecko simple-price API.
// No API key required.
type CoinGeckoClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewCoinGeckoClient creates a CoinGecko quote client.
func NewCoinGeckoClient(baseURL string, rps float64, burst int, logger *zap.Logger) *CoinGeckoClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)

	return &CoinGeckoClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name implements QuoteProvider.
func (c *CoinGeckoClient) Name() ProviderName {
	return ProviderCoinGecko
}

// coinGeckoPrice is one entry of the CoinGecko /simple/price response.
type coinGeckoPrice struct {
	USD           float64 `json:"usd"`
	USD24hChange  float64 `json:"usd_24h_change"`
	USD24hVol     float64 `json:"usd_24h_vol"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

// Quote implements QuoteProvider.
func (c *CoinGeckoClient) Quote(ctx context.Context, asset AssetConfig) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	result := map[string]coinGeckoPrice{}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                     asset.APISymbol,
			"vs_currencies":           "usd",
			"include_24hr_vol":        "true",
			"include_24hr_change":     "true",
			"include_last_updated_at": "true",
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("coingecko returned status %d for %s", resp.StatusCode(), asset.APISymbol)
	}

	data, ok := result[asset.APISymbol]
	if !ok || data.USD == 0 {
		return nil, fmt.Errorf("coingecko returned no data for %s", asset.APISymbol)
	}

	price := data.USD
	changePercent := data.USD24hChange
	change := changePercent / 100 * price

	timestamp := data.LastUpdatedAt * 1000
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	q := &Quote{
		Symbol:        asset.Name,
		Name:          asset.Name,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		// The simple-price endpoint has no OHLC; estimate around the price.
		High:          price * 1.02,
		Low:           price * 0.98,
		Open:          price,
		PreviousClose: price,
		Volume:        data.USD24hVol,
		Timestamp:     timestamp,
		IsMock:        false,
	}
	q.applySpread(asset.Type)
	return q, nil
}
