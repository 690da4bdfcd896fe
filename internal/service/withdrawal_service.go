package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/repository"
	"github.com/brokerlite/pkg/refid"
)

var ErrInvalidWithdrawalMethod = errors.New("invalid withdrawal method")

// withdrawalMethods accepted at request time.
var withdrawalMethods = []string{"bank_transfer", "upi", "instant_bank", "crypto", "wallet"}

// WithdrawalService handles payout requests. The debit happens before the
// withdrawal row is written, so recorded withdrawals always name funds that
// were actually locked.
type WithdrawalService struct {
	withdrawalRepo *repository.WithdrawalRepository
	ledger         *LedgerService
	logger         *zap.Logger
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(withdrawalRepo *repository.WithdrawalRepository, ledger *LedgerService, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		ledger:         ledger,
		logger:         logger,
	}
}

// CreateWithdrawalRequest carries the fields for requesting a payout.
type CreateWithdrawalRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency"`
	Method        string  `json:"method" binding:"required"`
	PayoutDetails string  `json:"payoutDetails"`
}

// Create debits the real balance and records the withdrawal. The conditional
// debit is the overdraft guard: when it fails nothing is written. Instant
// methods settle immediately, everything else queues as pending.
func (s *WithdrawalService) Create(ctx context.Context, userID string, req *CreateWithdrawalRequest) (*models.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validWithdrawalMethod(req.Method) {
		return nil, ErrInvalidWithdrawalMethod
	}
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	if err := s.ledger.DebitIfSufficient(ctx, userID, models.AccountTypeReal, req.Amount); err != nil {
		return nil, err
	}

	status := models.WithdrawalStatusPending
	if models.InstantWithdrawalMethod(req.Method) {
		status = models.WithdrawalStatusCompleted
	}

	withdrawal := &models.Withdrawal{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		Method:        req.Method,
		Status:        status,
		PayoutDetails: req.PayoutDetails,
		ReferenceID:   refid.Withdrawal(),
	}
	if err := s.withdrawalRepo.Create(ctx, withdrawal); err != nil {
		// The debit already landed. Refund so the ledger stays consistent
		// with the absent withdrawal row.
		if refundErr := s.ledger.Credit(ctx, userID, models.AccountTypeReal, req.Amount); refundErr != nil {
			s.logger.Error("withdrawal refund failed after record error",
				zap.String("user_id", userID),
				zap.Float64("amount", req.Amount),
				zap.Error(refundErr))
		}
		return nil, err
	}

	s.logger.Info("withdrawal recorded",
		zap.String("user_id", userID),
		zap.String("reference_id", withdrawal.ReferenceID),
		zap.String("status", string(withdrawal.Status)),
		zap.Float64("amount", withdrawal.Amount))
	return withdrawal, nil
}

// List returns the user's withdrawals, newest first, with a total count.
func (s *WithdrawalService) List(ctx context.Context, userID string, page, pageSize int) ([]models.Withdrawal, int64, error) {
	return s.withdrawalRepo.ListByUserPaginated(ctx, userID, page, pageSize)
}

// Reject marks a pending withdrawal rejected and returns the locked funds.
// The status flip is conditional on the row still being pending, so only
// one of several concurrent rejects refunds.
func (s *WithdrawalService) Reject(ctx context.Context, id uint) (*models.Withdrawal, error) {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.withdrawalRepo.UpdateStatusFrom(ctx, id,
		models.WithdrawalStatusPending, models.WithdrawalStatusRejected); err != nil {
		return nil, err
	}
	if err := s.ledger.Credit(ctx, withdrawal.UserID, models.AccountTypeReal, withdrawal.Amount); err != nil {
		return nil, err
	}

	withdrawal.Status = models.WithdrawalStatusRejected
	return withdrawal, nil
}

func validWithdrawalMethod(m string) bool {
	for _, v := range withdrawalMethods {
		if v == m {
			return true
		}
	}
	return false
}
