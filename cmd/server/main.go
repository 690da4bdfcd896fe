package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brokerlite/internal/auth"
	"github.com/brokerlite/internal/config"
	"github.com/brokerlite/internal/handler"
	"github.com/brokerlite/internal/logger"
	"github.com/brokerlite/internal/marketdata"
	"github.com/brokerlite/internal/middleware"
	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/payment"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/internal/service"
	"github.com/brokerlite/internal/worker"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	gin.SetMode(cfg.Server.Mode)

	db, err := initDatabase(cfg)
	if err != nil {
		zlog.Fatal("database init failed", zap.Error(err))
	}
	if err := autoMigrate(db); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}

	rdb := initRedis(cfg)

	// Repositories
	balanceRepo := repository.NewBalanceRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	// Market data providers with mock fallback
	providers := []marketdata.QuoteProvider{
		marketdata.NewCoinGeckoClient(cfg.Market.CoinGeckoBaseURL, cfg.Market.RateLimit, cfg.Market.RateLimitBurst, zlog),
	}
	if cfg.Market.FinnhubKey != "" {
		providers = append(providers,
			marketdata.NewFinnhubClient(cfg.Market.FinnhubBaseURL, cfg.Market.FinnhubKey, cfg.Market.RateLimit, cfg.Market.RateLimitBurst, zlog))
	}
	marketService := marketdata.NewService(
		providers,
		marketdata.NewMockGenerator(),
		rdb,
		time.Duration(cfg.Market.CacheTTLSeconds)*time.Second,
		zlog,
	)

	// Payment gateways
	gateways := payment.NewRegistry(
		payment.NewCardGateway(cfg.Payment.Card.BaseURL, cfg.Payment.Card.SecretKey, zlog),
		payment.NewWalletGateway(cfg.Payment.Wallet.BaseURL, cfg.Payment.Wallet.APIKey, cfg.Payment.Wallet.CallbackSecret, cfg.Payment.Wallet.SiteURL, zlog),
	)

	// Services
	ledgerService := service.NewLedgerService(balanceRepo, zlog)
	depositService := service.NewDepositService(depositRepo, gateways, zlog)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, ledgerService, zlog)
	tradingService := service.NewTradingService(tradeRepo, ledgerService, marketService, zlog)

	// Handlers
	pollInterval := time.Duration(cfg.Market.PollIntervalMs) * time.Millisecond
	jitterInterval := time.Duration(cfg.Market.JitterIntervalMs) * time.Millisecond

	marketHandler := handler.NewMarketHandler(marketService)
	streamHandler := handler.NewStreamHandler(marketService, pollInterval, jitterInterval, zlog)
	balanceHandler := handler.NewBalanceHandler(ledgerService)
	depositHandler := handler.NewDepositHandler(depositService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	tradeHandler := handler.NewTradeHandler(tradingService)

	// Background worker sweeping expired timed trades
	expiryWorker := worker.NewExpiryWorker(
		tradingService,
		time.Duration(cfg.Worker.ExpiryIntervalMs)*time.Millisecond,
		zlog,
	)
	go expiryWorker.Start()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zlog))
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	verifier := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	authRequired := middleware.Auth(verifier)

	v1 := router.Group("/api/v1")
	{
		// Quote endpoints are public; balances and money movement are not.
		v1.GET("/market-data", marketHandler.GetQuotes)
		v1.GET("/market-data/stream", streamHandler.Stream)

		// Gateway callbacks authenticate via signature, not session.
		v1.GET("/payments/:provider/callback", depositHandler.HandleCallback)
		v1.POST("/payments/:provider/callback", depositHandler.HandleCallback)

		protected := v1.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/balance", balanceHandler.GetBalance)
			protected.POST("/balance", balanceHandler.CreateBalance)
			protected.PUT("/balance", balanceHandler.UpdateBalance)

			protected.GET("/deposits", depositHandler.ListDeposits)
			protected.POST("/deposits", depositHandler.CreateDeposit)
			protected.PUT("/deposits/:id", depositHandler.ReconcileDeposit)
			protected.POST("/payments/:provider/charge", depositHandler.CreateCharge)

			protected.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
			protected.POST("/withdrawals", withdrawalHandler.CreateWithdrawal)

			protected.GET("/trades", tradeHandler.ListTrades)
			protected.POST("/trades", tradeHandler.OpenTrade)
			protected.PUT("/trades/:id", tradeHandler.UpdateTrade)
			protected.DELETE("/trades/:id", tradeHandler.CloseTrade)
			protected.GET("/trading-history", tradeHandler.GetTradingHistory)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	expiryWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Balance{},
		&models.Deposit{},
		&models.Withdrawal{},
		&models.Trade{},
		&models.TradingHistory{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
