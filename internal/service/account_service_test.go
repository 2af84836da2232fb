package service

import (
	"context"
	"testing"
	"time"

	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/storage"
	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories with programmable failures

type fakePortfolioRepo struct {
	portfolio    *models.Portfolio
	getErr       error
	upsertErr    error
	conflictHits int // number of Upsert calls to fail with a version conflict
	upsertCalls  int
}

func (f *fakePortfolioRepo) Get(ctx context.Context, userID int64) (*models.Portfolio, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.portfolio == nil {
		return nil, nil
	}
	return f.portfolio.Clone(), nil
}

func (f *fakePortfolioRepo) Upsert(ctx context.Context, portfolio *models.Portfolio, expectedUpdatedAt *time.Time) error {
	f.upsertCalls++
	if f.conflictHits > 0 {
		f.conflictHits--
		return storage.ErrVersionConflict
	}
	if f.upsertErr != nil {
		return f.upsertErr
	}
	portfolio.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	f.portfolio = portfolio.Clone()
	return nil
}

type fakeTransactionRepo struct {
	created   []*models.Transaction
	createErr error
}

func (f *fakeTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	tx.ID = "tx-1"
	f.created = append(f.created, tx)
	return nil
}

func (f *fakeTransactionRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	return f.created, nil
}

func newTx(action types.ActionType, symbol string, price string, qty int64) *models.Transaction {
	return &models.Transaction{
		UserID:         1,
		Symbol:         symbol,
		Price:          decimal.RequireFromString(price),
		Quantity:       qty,
		Action:         action,
		InstrumentType: types.InstrumentStock,
	}
}

func TestCreateTransaction_FirstTransferCreatesPortfolio(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{}
	txRepo := &fakeTransactionRepo{}
	svc := NewAccountService(portfolioRepo, txRepo)

	created, err := svc.CreateTransaction(context.Background(), newTx(types.ActionTransfer, "", "3000", 1))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", created.ID)
	require.NotNil(t, portfolioRepo.portfolio)
	assert.True(t, portfolioRepo.portfolio.CashBalance.Equal(decimal.NewFromInt(3000)))
	assert.Len(t, txRepo.created, 1)
}

func TestCreateTransaction_ValidationFailureTouchesNothing(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{}
	txRepo := &fakeTransactionRepo{}
	svc := NewAccountService(portfolioRepo, txRepo)

	tx := newTx(types.ActionBuy, "", "100", 1) // buy needs a symbol
	_, err := svc.CreateTransaction(context.Background(), tx)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeInvalidInput, svcErr.Code)
	assert.Zero(t, portfolioRepo.upsertCalls)
	assert.Empty(t, txRepo.created)
}

func TestCreateTransaction_SellWithoutHoldingPersistsNothing(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{
		portfolio: &models.Portfolio{
			UserID:       1,
			CashBalance:  decimal.NewFromInt(1000),
			TotalMoneyIn: decimal.NewFromInt(1000),
			Holdings:     []models.Holding{},
		},
	}
	txRepo := &fakeTransactionRepo{}
	svc := NewAccountService(portfolioRepo, txRepo)

	_, err := svc.CreateTransaction(context.Background(), newTx(types.ActionSell, "TSLA", "100", 1))

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeInsufficientHoldings, svcErr.Code)
	assert.Zero(t, portfolioRepo.upsertCalls, "rejected transactions must not reach storage")
	assert.Empty(t, txRepo.created)
	assert.True(t, portfolioRepo.portfolio.CashBalance.Equal(decimal.NewFromInt(1000)))
}

func TestCreateTransaction_RetriesOnVersionConflict(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{conflictHits: 2}
	txRepo := &fakeTransactionRepo{}
	svc := NewAccountService(portfolioRepo, txRepo)

	_, err := svc.CreateTransaction(context.Background(), newTx(types.ActionTransfer, "", "500", 1))
	require.NoError(t, err)

	assert.Equal(t, 3, portfolioRepo.upsertCalls, "two conflicts then success")
	assert.Len(t, txRepo.created, 1)
}

func TestCreateTransaction_GivesUpAfterRepeatedConflicts(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{conflictHits: 100}
	txRepo := &fakeTransactionRepo{}
	svc := NewAccountService(portfolioRepo, txRepo)

	_, err := svc.CreateTransaction(context.Background(), newTx(types.ActionTransfer, "", "500", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
	assert.Empty(t, txRepo.created, "no record without a successful portfolio write")
}

func TestCreateTransaction_RecordFailureSurfaces(t *testing.T) {
	portfolioRepo := &fakePortfolioRepo{}
	txRepo := &fakeTransactionRepo{createErr: assert.AnError}
	svc := NewAccountService(portfolioRepo, txRepo)

	_, err := svc.CreateTransaction(context.Background(), newTx(types.ActionTransfer, "", "500", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestListTransactions_EmptyIsNotNil(t *testing.T) {
	svc := NewAccountService(&fakePortfolioRepo{}, &fakeTransactionRepo{})

	transactions, err := svc.ListTransactions(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, transactions)
	assert.Empty(t, transactions)
}
