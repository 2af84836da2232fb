package service

import (
	"context"
	"testing"
	"time"

	"github.com/portfolio-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotRepo struct {
	upserted  []*models.PortfolioSnapshot
	upsertErr map[int64]error
}

func (f *fakeSnapshotRepo) Upsert(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	if err := f.upsertErr[snapshot.UserID]; err != nil {
		return err
	}
	f.upserted = append(f.upserted, snapshot)
	return nil
}

func (f *fakeSnapshotRepo) ListByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.PortfolioSnapshot, error) {
	var out []*models.PortfolioSnapshot
	for _, s := range f.upserted {
		if s.UserID == userID && !s.SnapshotDate.Before(from) && !s.SnapshotDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeUserLister struct {
	userIDs []int64
}

func (f *fakeUserLister) ListUserIDs(ctx context.Context) ([]int64, error) {
	return f.userIDs, nil
}

// multiUserPortfolioRepo serves a fixed portfolio per user id
type multiUserPortfolioRepo struct {
	portfolios map[int64]*models.Portfolio
}

func (m *multiUserPortfolioRepo) Get(ctx context.Context, userID int64) (*models.Portfolio, error) {
	p, ok := m.portfolios[userID]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (m *multiUserPortfolioRepo) Upsert(ctx context.Context, portfolio *models.Portfolio, expectedUpdatedAt *time.Time) error {
	m.portfolios[portfolio.UserID] = portfolio.Clone()
	return nil
}

func TestCaptureAll_WritesOneSnapshotPerUser(t *testing.T) {
	repo := &multiUserPortfolioRepo{portfolios: map[int64]*models.Portfolio{
		1: {UserID: 1, CashBalance: decimal.NewFromInt(1500), TotalMoneyIn: decimal.NewFromInt(3000)},
		2: {UserID: 2, CashBalance: decimal.NewFromInt(500), TotalMoneyIn: decimal.NewFromInt(400)},
	}}
	lister := &fakeUserLister{userIDs: []int64{1, 2}}
	snapshotRepo := &fakeSnapshotRepo{}
	valuer := NewValuationService(repo, &fakePriceSource{})
	svc := NewSnapshotService(repo, lister, snapshotRepo, valuer)

	asOf := time.Date(2025, 6, 15, 21, 30, 0, 0, time.UTC)
	captured, err := svc.CaptureAll(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, 2, captured)
	require.Len(t, snapshotRepo.upserted, 2)

	first := snapshotRepo.upserted[0]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), first.SnapshotDate)
	assert.True(t, first.PortfolioValue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, first.CashIn.Equal(decimal.NewFromInt(3000)))
	assert.True(t, first.HoldingsValue.IsZero())
	assert.True(t, first.Gain.Equal(decimal.NewFromInt(-1500)))
	assert.True(t, first.ROI.Equal(decimal.NewFromInt(-50)))
	require.NotNil(t, first.Breakdown)
}

func TestCaptureAll_OneFailureDoesNotStopTheRun(t *testing.T) {
	repo := &multiUserPortfolioRepo{portfolios: map[int64]*models.Portfolio{
		1: {UserID: 1, CashBalance: decimal.NewFromInt(100), TotalMoneyIn: decimal.NewFromInt(100)},
		2: {UserID: 2, CashBalance: decimal.NewFromInt(200), TotalMoneyIn: decimal.NewFromInt(200)},
		3: {UserID: 3, CashBalance: decimal.NewFromInt(300), TotalMoneyIn: decimal.NewFromInt(300)},
	}}
	lister := &fakeUserLister{userIDs: []int64{1, 2, 3}}
	snapshotRepo := &fakeSnapshotRepo{upsertErr: map[int64]error{2: assert.AnError}}
	valuer := NewValuationService(repo, &fakePriceSource{})
	svc := NewSnapshotService(repo, lister, snapshotRepo, valuer)

	captured, err := svc.CaptureAll(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 2, captured)
	require.Len(t, snapshotRepo.upserted, 2)
	assert.Equal(t, int64(1), snapshotRepo.upserted[0].UserID)
	assert.Equal(t, int64(3), snapshotRepo.upserted[1].UserID)
}

func TestCaptureAll_SkipsVanishedPortfolios(t *testing.T) {
	// A user can disappear between the listing and the per-user fetch
	repo := &multiUserPortfolioRepo{portfolios: map[int64]*models.Portfolio{
		1: {UserID: 1, CashBalance: decimal.NewFromInt(100), TotalMoneyIn: decimal.NewFromInt(100)},
	}}
	lister := &fakeUserLister{userIDs: []int64{1, 99}}
	snapshotRepo := &fakeSnapshotRepo{}
	valuer := NewValuationService(repo, &fakePriceSource{})
	svc := NewSnapshotService(repo, lister, snapshotRepo, valuer)

	captured, err := svc.CaptureAll(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 2, captured, "a vanished user is not a failure")
	require.Len(t, snapshotRepo.upserted, 1)
}

func TestListSnapshots_FiltersByRange(t *testing.T) {
	snapshotRepo := &fakeSnapshotRepo{upserted: []*models.PortfolioSnapshot{
		{UserID: 1, SnapshotDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{UserID: 1, SnapshotDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{UserID: 2, SnapshotDate: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewSnapshotService(nil, nil, snapshotRepo, nil)

	snapshots, err := svc.ListSnapshots(context.Background(), 1,
		time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), snapshots[0].SnapshotDate)
}

func TestListSnapshots_EmptyIsNotNil(t *testing.T) {
	svc := NewSnapshotService(nil, nil, &fakeSnapshotRepo{}, nil)

	snapshots, err := svc.ListSnapshots(context.Background(), 1, time.Now().AddDate(0, 0, -30), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, snapshots)
	assert.Empty(t, snapshots)
}
