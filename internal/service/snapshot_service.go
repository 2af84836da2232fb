package service

import (
	"context"
	"time"

	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/models"
)

// SnapshotRepository interface for snapshot data operations
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *models.PortfolioSnapshot) error
	ListByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.PortfolioSnapshot, error)
}

// UserLister enumerates users with a stored portfolio
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Valuer computes valuations and breakdowns for a user
type Valuer interface {
	Valuation(ctx context.Context, userID int64) (*models.ValuationResult, error)
	Breakdown(ctx context.Context, userID int64) (*models.HoldingBreakdown, error)
}

// SnapshotService captures daily valuation snapshots for every user
type SnapshotService struct {
	portfolioRepo PortfolioRepository
	userLister    UserLister
	snapshotRepo  SnapshotRepository
	valuer        Valuer
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(portfolioRepo PortfolioRepository, userLister UserLister, snapshotRepo SnapshotRepository, valuer Valuer) *SnapshotService {
	return &SnapshotService{
		portfolioRepo: portfolioRepo,
		userLister:    userLister,
		snapshotRepo:  snapshotRepo,
		valuer:        valuer,
	}
}

// CaptureAll writes one snapshot per portfolio-holding user for the given
// date. A failure for one user is logged and does not stop the run; the
// count of captured snapshots is returned.
func (s *SnapshotService) CaptureAll(ctx context.Context, asOf time.Time) (int, error) {
	logger := logging.FromContext(ctx)

	userIDs, err := s.userLister.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	snapshotDate := asOf.UTC().Truncate(24 * time.Hour)

	captured := 0
	for _, userID := range userIDs {
		if err := s.captureUser(ctx, userID, snapshotDate); err != nil {
			logger.WithError(err).WithField("userId", userID).
				Error("Failed to capture portfolio snapshot")
			continue
		}
		captured++
	}

	logger.WithFields(map[string]interface{}{
		"users":    len(userIDs),
		"captured": captured,
		"date":     snapshotDate.Format("2006-01-02"),
	}).Info("Snapshot run completed")

	return captured, nil
}

func (s *SnapshotService) captureUser(ctx context.Context, userID int64, snapshotDate time.Time) error {
	portfolio, err := s.portfolioRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if portfolio == nil {
		return nil
	}

	valuation, err := s.valuer.Valuation(ctx, userID)
	if err != nil {
		return err
	}

	breakdown, err := s.valuer.Breakdown(ctx, userID)
	if err != nil {
		return err
	}

	return s.snapshotRepo.Upsert(ctx, &models.PortfolioSnapshot{
		UserID:         userID,
		SnapshotDate:   snapshotDate,
		PortfolioValue: valuation.TotalPortfolioValue,
		CashBalance:    portfolio.CashBalance,
		CashIn:         portfolio.TotalMoneyIn,
		HoldingsValue:  valuation.TotalPortfolioValue.Sub(portfolio.CashBalance),
		Breakdown:      breakdown,
		Gain:           valuation.TotalGain,
		ROI:            valuation.ROIPercent,
	})
}

// ListSnapshots returns a user's snapshots within [from, to], oldest first
func (s *SnapshotService) ListSnapshots(ctx context.Context, userID int64, from, to time.Time) ([]*models.PortfolioSnapshot, error) {
	snapshots, err := s.snapshotRepo.ListByUserAndDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if snapshots == nil {
		snapshots = []*models.PortfolioSnapshot{}
	}
	return snapshots, nil
}
