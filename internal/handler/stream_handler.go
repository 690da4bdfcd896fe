package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brokerlite/internal/feed"
	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/pkg/response"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler upgrades clients to a websocket quote stream. Each
// subscribed symbol gets its own feed simulator for the lifetime of the
// connection.
type StreamHandler struct {
	market         *marketdata.Service
	pollInterval   time.Duration
	jitterInterval time.Duration
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(market *marketdata.Service, pollInterval, jitterInterval time.Duration, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		market:         market,
		pollInterval:   pollInterval,
		jitterInterval: jitterInterval,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// streamMessage is the wire frame sent for every tick.
type streamMessage struct {
	Symbol    string            `json:"symbol"`
	Quote     *marketdata.Quote `json:"quote"`
	Timestamp int64             `json:"timestamp"`
}

// Stream handles the websocket quote feed
// GET /api/v1/market-data/stream?symbols=Apple,Bitcoin
func (h *StreamHandler) Stream(c *gin.Context) {
	names := splitSymbols(c.Query("symbols"))
	if len(names) == 0 {
		response.BadRequest(c, response.CodeValidation, "symbols parameter is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	fetch := func(ctx context.Context, symbol string) *marketdata.Quote {
		return h.market.Quote(ctx, symbol)
	}

	type update struct {
		symbol string
		quote  marketdata.Quote
	}
	updates := make(chan update, 64)

	simulators := make([]*feed.Simulator, 0, len(names))
	for _, name := range names {
		sim := feed.NewSimulator(name, fetch, h.pollInterval, h.jitterInterval, h.logger)
		sim.Start(ctx)
		simulators = append(simulators, sim)

		go func(name string, sim *feed.Simulator) {
			for q := range sim.Updates() {
				select {
				case updates <- update{symbol: name, quote: q}:
				case <-ctx.Done():
					return
				}
			}
		}(name, sim)
	}
	defer func() {
		for _, sim := range simulators {
			sim.Stop()
		}
	}()

	// Reader goroutine detects client disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u := <-updates:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			msg := streamMessage{
				Symbol:    u.symbol,
				Quote:     &u.quote,
				Timestamp: time.Now().UnixMilli(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("stream write failed, dropping client",
					zap.String("symbol", u.symbol),
					zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
