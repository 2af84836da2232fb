package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/portfolio-service/internal/models"
)

// ErrVersionConflict is returned by Upsert when the stored portfolio has
// changed since it was read. Callers retry the whole read-apply-write cycle.
var ErrVersionConflict = errors.New("portfolio was modified concurrently")

// PortfolioRepository handles portfolio persistence, one row per user
type PortfolioRepository struct {
	db *PostgresDB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *PostgresDB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Get retrieves a user's portfolio. A user without a portfolio yields
// (nil, nil): absence is a normal state, not an error.
func (r *PortfolioRepository) Get(ctx context.Context, userID int64) (*models.Portfolio, error) {
	query := `
		SELECT user_id, cash_balance, total_money_in, holdings, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
	`

	var portfolio models.Portfolio
	var holdingsJSON []byte

	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(
		&portfolio.UserID,
		&portfolio.CashBalance,
		&portfolio.TotalMoneyIn,
		&holdingsJSON,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	if err := json.Unmarshal(holdingsJSON, &portfolio.Holdings); err != nil {
		return nil, fmt.Errorf("failed to decode holdings: %w", err)
	}

	return &portfolio, nil
}

// Upsert writes a portfolio keyed by user id. expectedUpdatedAt carries the
// updated_at read before applying the transaction: nil means the caller saw
// no row and expects to insert, non-nil means the caller expects the stored
// row to still carry that timestamp. A mismatch on either path returns
// ErrVersionConflict so the caller can re-read and re-apply.
func (r *PortfolioRepository) Upsert(ctx context.Context, portfolio *models.Portfolio, expectedUpdatedAt *time.Time) error {
	holdingsJSON, err := json.Marshal(portfolio.Holdings)
	if err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}

	// Postgres stores microsecond precision, so the value written must
	// round-trip exactly for the next conditional update to match.
	portfolio.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if expectedUpdatedAt == nil {
		query := `
			INSERT INTO portfolios (user_id, cash_balance, total_money_in, holdings, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err := r.db.Pool().Exec(ctx, query,
			portfolio.UserID,
			portfolio.CashBalance,
			portfolio.TotalMoneyIn,
			holdingsJSON,
			portfolio.CreatedAt,
			portfolio.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// Another request created the row between our read and write.
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert portfolio: %w", err)
		}
		return nil
	}

	query := `
		UPDATE portfolios
		SET cash_balance = $2, total_money_in = $3, holdings = $4, updated_at = $5
		WHERE user_id = $1 AND updated_at = $6
	`
	result, err := r.db.Pool().Exec(ctx, query,
		portfolio.UserID,
		portfolio.CashBalance,
		portfolio.TotalMoneyIn,
		holdingsJSON,
		portfolio.UpdatedAt,
		*expectedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	return nil
}

// ListUserIDs returns the ids of all users holding a portfolio, used by the
// snapshot writer
func (r *PortfolioRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT user_id FROM portfolios ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read portfolio users: %w", err)
	}

	return userIDs, nil
}
