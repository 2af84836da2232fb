package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/portfolio-service/internal/models"
)

// SnapshotRepository handles daily portfolio snapshot persistence
type SnapshotRepository struct {
	db *PostgresDB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *PostgresDB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes a snapshot keyed (user_id, snapshot_date). Re-running the
// snapshot job on the same day overwrites that day's row.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	breakdownJSON, err := json.Marshal(snapshot.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}
	snapshot.UpdatedAt = now

	query := `
		INSERT INTO portfolio_snapshots
			(user_id, snapshot_date, portfolio_value, cash_balance, cash_in,
			 holdings_value, breakdown, gain, roi, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			portfolio_value = EXCLUDED.portfolio_value,
			cash_balance = EXCLUDED.cash_balance,
			cash_in = EXCLUDED.cash_in,
			holdings_value = EXCLUDED.holdings_value,
			breakdown = EXCLUDED.breakdown,
			gain = EXCLUDED.gain,
			roi = EXCLUDED.roi,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Pool().Exec(ctx, query,
		snapshot.UserID,
		snapshot.SnapshotDate,
		snapshot.PortfolioValue,
		snapshot.CashBalance,
		snapshot.CashIn,
		snapshot.HoldingsValue,
		breakdownJSON,
		snapshot.Gain,
		snapshot.ROI,
		snapshot.CreatedAt,
		snapshot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// ListByUserAndDateRange returns a user's snapshots within [from, to],
// oldest first
func (r *SnapshotRepository) ListByUserAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.PortfolioSnapshot, error) {
	query := `
		SELECT user_id, snapshot_date, portfolio_value, cash_balance, cash_in,
		       holdings_value, breakdown, gain, roi, created_at, updated_at
		FROM portfolio_snapshots
		WHERE user_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date ASC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.PortfolioSnapshot
	for rows.Next() {
		var snapshot models.PortfolioSnapshot
		var breakdownJSON []byte
		err := rows.Scan(
			&snapshot.UserID,
			&snapshot.SnapshotDate,
			&snapshot.PortfolioValue,
			&snapshot.CashBalance,
			&snapshot.CashIn,
			&snapshot.HoldingsValue,
			&breakdownJSON,
			&snapshot.Gain,
			&snapshot.ROI,
			&snapshot.CreatedAt,
			&snapshot.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if len(breakdownJSON) > 0 {
			if err := json.Unmarshal(breakdownJSON, &snapshot.Breakdown); err != nil {
				return nil, fmt.Errorf("failed to decode breakdown: %w", err)
			}
		}
		snapshots = append(snapshots, &snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return snapshots, nil
}
