package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/pkg/response"
)

// MarketHandler serves quote snapshots
type MarketHandler struct {
	market *marketdata.Service
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(market *marketdata.Service) *MarketHandler {
	return &MarketHandler{market: market}
}

// marketPayload is the quote envelope; the timestamp marks when the
// snapshot was assembled, not when any upstream priced it.
type marketPayload struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// GetQuotes handles quote lookups for one or many instruments
// GET /api/v1/market-data?symbol=Apple
// GET /api/v1/market-data?symbols=Apple,Bitcoin
func (h *MarketHandler) GetQuotes(c *gin.Context) {
	symbol := c.Query("symbol")
	symbols := c.Query("symbols")

	if symbol == "" && symbols == "" {
		response.BadRequest(c, response.CodeValidation, "symbol or symbols parameter is required")
		return
	}

	if symbol != "" {
		if !h.market.Known(symbol) {
			response.NotFound(c, response.CodeNotFound, "unknown symbol: "+symbol)
			return
		}
		c.JSON(http.StatusOK, marketPayload{
			Success:   true,
			Data:      h.market.Quote(c.Request.Context(), symbol),
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	names := splitSymbols(symbols)
	if len(names) == 0 {
		response.BadRequest(c, response.CodeValidation, "symbols parameter is empty")
		return
	}

	c.JSON(http.StatusOK, marketPayload{
		Success:   true,
		Data:      h.market.Batch(c.Request.Context(), names),
		Timestamp: time.Now().UnixMilli(),
	})
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
