package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brokerlite/internal/service"
)

// ExpiryWorker sweeps timed trades whose expiry has passed and closes them
// at the current market quote.
type ExpiryWorker struct {
	tradingService *service.TradingService
	interval       time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewExpiryWorker creates a new trade expiry worker
func NewExpiryWorker(tradingService *service.TradingService, interval time.Duration, logger *zap.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &ExpiryWorker{
		tradingService: tradingService,
		interval:       interval,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the sweep loop. It blocks until Stop is called.
func (w *ExpiryWorker) Start() {
	w.logger.Info("trade expiry worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			closed := w.tradingService.CloseExpired(ctx, now)
			cancel()
			if closed > 0 {
				w.logger.Info("expired trades closed", zap.Int("count", closed))
			}
		case <-w.stopChan:
			w.logger.Info("trade expiry worker stopped")
			return
		}
	}
}

// Stop stops the sweep loop
func (w *ExpiryWorker) Stop() {
	close(w.stopChan)
}
