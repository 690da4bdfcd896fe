package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/payment"
	"github.com/brokerlite/internal/repository"
)

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDepositStatus = errors.New("invalid deposit status")
	ErrDepositNotOwned      = errors.New("deposit belongs to another user")
)

// DepositService handles deposit creation and reconciliation
type DepositService struct {
	depositRepo *repository.DepositRepository
	gateways    *payment.Registry
	logger      *zap.Logger
}

// NewDepositService creates a new DepositService
func NewDepositService(depositRepo *repository.DepositRepository, gateways *payment.Registry, logger *zap.Logger) *DepositService {
	return &DepositService{
		depositRepo: depositRepo,
		gateways:    gateways,
		logger:      logger,
	}
}

// CreateDepositRequest carries the fields for recording a pending deposit.
type CreateDepositRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod" binding:"required"`
	TransactionID string  `json:"transactionId" binding:"required"`
}

// Create records a deposit in pending state. The transaction id is the
// idempotency key; duplicates surface repository.ErrDuplicateTransactionID.
func (s *DepositService) Create(ctx context.Context, userID string, req *CreateDepositRequest) (*models.Deposit, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	deposit := &models.Deposit{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		Status:        models.DepositStatusPending,
		TransactionID: req.TransactionID,
	}
	if err := s.depositRepo.Create(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// List returns deposits for a user, optionally filtered by status.
func (s *DepositService) List(ctx context.Context, userID string, status models.DepositStatus, limit, offset int) ([]models.Deposit, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidDepositStatus
	}
	return s.depositRepo.ListByUser(ctx, userID, status, limit, offset)
}

// Reconcile moves a deposit to a terminal status on behalf of its owner.
// Completing credits the real balance exactly once regardless of replays.
func (s *DepositService) Reconcile(ctx context.Context, userID string, depositID uint, to models.DepositStatus) (*models.Deposit, error) {
	if !to.Terminal() {
		return nil, ErrInvalidDepositStatus
	}

	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if deposit.UserID != userID {
		return nil, ErrDepositNotOwned
	}

	reconciled, alreadyDone, err := s.depositRepo.Reconcile(ctx, deposit.TransactionID, to)
	if err != nil {
		return nil, err
	}
	if alreadyDone {
		s.logger.Info("deposit reconciliation replayed",
			zap.String("transaction_id", deposit.TransactionID),
			zap.String("status", string(reconciled.Status)))
	}
	return reconciled, nil
}

// ChargeRequest carries the fields for starting a gateway checkout.
type ChargeRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	CustomerName  string  `json:"fullname"`
	CustomerEmail string  `json:"email"`
}

// ChargeResult pairs the recorded pending deposit with the gateway charge.
type ChargeResult struct {
	Deposit      *models.Deposit `json:"deposit"`
	PaymentURL   string          `json:"paymentUrl,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
}

// Charge creates a gateway charge and records the matching pending deposit
// under the gateway's transaction id, so the later callback reconciles it.
func (s *DepositService) Charge(ctx context.Context, userID, provider string, req *ChargeRequest) (*ChargeResult, error) {
	gateway, err := s.gateways.Get(provider)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	charge, err := gateway.CreateCharge(ctx, payment.ChargeRequest{
		Amount:        req.Amount,
		Currency:      currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	deposit := &models.Deposit{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentMethod: gateway.Name(),
		Status:        models.DepositStatusPending,
		TransactionID: charge.TransactionID,
	}
	if err := s.depositRepo.Create(ctx, deposit); err != nil {
		return nil, err
	}

	return &ChargeResult{
		Deposit:      deposit,
		PaymentURL:   charge.PaymentURL,
		ClientSecret: charge.ClientSecret,
	}, nil
}

// HandleCallback verifies a gateway callback and reconciles the deposit it
// names. Replayed callbacks are acknowledged without a second credit.
func (s *DepositService) HandleCallback(ctx context.Context, provider string, params map[string]string) (*models.Deposit, error) {
	gateway, err := s.gateways.Get(provider)
	if err != nil {
		return nil, err
	}

	verification, err := gateway.VerifyCallback(params)
	if err != nil {
		return nil, err
	}

	to := models.DepositStatusCompleted
	if !verification.Success {
		to = models.DepositStatusFailed
	}

	deposit, alreadyDone, err := s.depositRepo.Reconcile(ctx, verification.TransactionID, to)
	if err != nil {
		return nil, err
	}
	if alreadyDone {
		s.logger.Info("gateway callback replayed",
			zap.String("provider", provider),
			zap.String("transaction_id", verification.TransactionID))
	}
	return deposit, nil
}
