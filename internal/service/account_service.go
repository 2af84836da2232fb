// Package service implements portfolio accounting, valuation and snapshot
// orchestration on top of the storage repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/portfolio-service/internal/accounting"
	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/retry"
	"github.com/portfolio-service/internal/storage"
)

// Repository interfaces for dependency injection

// PortfolioRepository interface for portfolio data operations
type PortfolioRepository interface {
	Get(ctx context.Context, userID int64) (*models.Portfolio, error)
	Upsert(ctx context.Context, portfolio *models.Portfolio, expectedUpdatedAt *time.Time) error
}

// TransactionRepository interface for transaction record operations
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error)
}

// AccountService applies transactions to portfolios and maintains the
// transaction record
type AccountService struct {
	portfolioRepo   PortfolioRepository
	transactionRepo TransactionRepository
	retryConfig     *retry.Config
}

// NewAccountService creates a new account service
func NewAccountService(portfolioRepo PortfolioRepository, transactionRepo TransactionRepository) *AccountService {
	cfg := retry.DefaultConfig()
	cfg.RetryIf = func(err error) bool {
		return errors.Is(err, storage.ErrVersionConflict)
	}
	return &AccountService{
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		retryConfig:     cfg,
	}
}

// CreateTransaction validates a transaction, applies it to the user's
// portfolio and appends it to the transaction record. The read-apply-write
// cycle retries on concurrent modification so two simultaneous requests for
// the same user both land, one after the other. The transaction record is
// written only after the portfolio write succeeds.
func (s *AccountService) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"userId": tx.UserID,
		"action": tx.Action,
		"symbol": tx.Symbol,
	})

	err := retry.Do(ctx, s.retryConfig, func(ctx context.Context, attempt int) error {
		current, err := s.portfolioRepo.Get(ctx, tx.UserID)
		if err != nil {
			return err
		}

		var expected *time.Time
		if current != nil {
			t := current.UpdatedAt
			expected = &t
		}

		updated, err := accounting.Apply(current, tx)
		if err != nil {
			return err
		}

		return s.portfolioRepo.Upsert(ctx, updated, expected)
	})
	if err != nil {
		return nil, err
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		// The portfolio write already landed; surface the record failure
		// rather than silently dropping it.
		logger.WithError(err).Error("Portfolio updated but transaction record failed")
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	logger.WithField("transactionId", tx.ID).Info("Transaction processed")
	return tx, nil
}

// ListTransactions returns a user's transaction record, most recent first
func (s *AccountService) ListTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	transactions, err := s.transactionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	return transactions, nil
}
