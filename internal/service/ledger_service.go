package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/brokerlite/internal/models"
	"github.com/brokerlite/internal/repository"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)

// LedgerService owns all balance mutations. Every credit and debit in the
// system goes through it so the conditional-update guarantees of the
// repository are never bypassed.
type LedgerService struct {
	balanceRepo *repository.BalanceRepository
	logger      *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(balanceRepo *repository.BalanceRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		balanceRepo: balanceRepo,
		logger:      logger,
	}
}

// Provision creates the balance row for a user with default funding.
func (s *LedgerService) Provision(ctx context.Context, userID string) (*models.Balance, error) {
	return s.balanceRepo.Provision(ctx, userID)
}

// Get returns the balance row for a user.
func (s *LedgerService) Get(ctx context.Context, userID string) (*models.Balance, error) {
	return s.balanceRepo.GetByUserID(ctx, userID)
}

// UpdateFields applies a partial update to a balance row. Callers pass only
// the columns they intend to change.
func (s *LedgerService) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) (*models.Balance, error) {
	return s.balanceRepo.UpdateFields(ctx, userID, fields)
}

// Credit adds funds to one account bucket. Amount validation happens before
// any database round trip.
func (s *LedgerService) Credit(ctx context.Context, userID string, accountType models.AccountType, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	column, err := accountColumn(accountType)
	if err != nil {
		return err
	}
	return s.balanceRepo.Credit(ctx, userID, column, amount)
}

// DebitIfSufficient removes funds from one account bucket only when the
// current value covers the amount. Returns repository.ErrBalanceNotFound
// when the user has no ledger row and ErrInsufficientFunds when the row
// exists but cannot cover the amount.
func (s *LedgerService) DebitIfSufficient(ctx context.Context, userID string, accountType models.AccountType, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	column, err := accountColumn(accountType)
	if err != nil {
		return err
	}

	ok, err := s.balanceRepo.DebitIfSufficient(ctx, userID, column, amount)
	if err != nil {
		return err
	}
	if !ok {
		// The conditional update matches zero rows both for a missing
		// ledger row and for short funds; only the latter is
		// ErrInsufficientFunds.
		if _, err := s.balanceRepo.GetByUserID(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Settle applies a realized trade result to the account it was traded on.
// Gains are credited in full. Losses are debited conditionally; when the
// account cannot cover the full loss the bucket is drained to zero instead
// of going negative.
func (s *LedgerService) Settle(ctx context.Context, userID string, accountType models.AccountType, pnl float64) error {
	if pnl == 0 {
		return nil
	}
	if pnl > 0 {
		return s.Credit(ctx, userID, accountType, pnl)
	}

	loss := -pnl
	err := s.DebitIfSufficient(ctx, userID, accountType, loss)
	if !errors.Is(err, ErrInsufficientFunds) {
		return err
	}

	// Loss exceeds the bucket. Drain whatever remains.
	balance, err := s.balanceRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	remaining := balance.RealBalance
	if accountType == models.AccountTypePractice {
		remaining = balance.Balance
	}
	if remaining <= 0 {
		return nil
	}
	if err := s.DebitIfSufficient(ctx, userID, accountType, remaining); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			// Lost a race with another debit; the bucket is already
			// below the snapshot we read. Treat it as drained.
			s.logger.Warn("settlement drain raced with concurrent debit",
				zap.String("user_id", userID),
				zap.String("account_type", string(accountType)))
			return nil
		}
		return err
	}
	return nil
}

func accountColumn(accountType models.AccountType) (string, error) {
	switch accountType {
	case models.AccountTypeReal:
		return repository.ColumnRealBalance, nil
	case models.AccountTypePractice:
		return repository.ColumnPracticeBalance, nil
	default:
		return "", ErrInvalidAccountType
	}
}
