package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio-service/internal/models"
)

// TransactionRepository handles the append-only transaction record
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create persists a transaction record and fills in its generated id and
// timestamps
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	tx.ID = uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)
	tx.CreatedAt = now
	tx.UpdatedAt = now

	query := `
		INSERT INTO transactions (id, user_id, symbol, price, quantity, action, instrument_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Symbol,
		tx.Price,
		tx.Quantity,
		tx.Action,
		tx.InstrumentType,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// ListByUser returns a user's transactions, most recent first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, symbol, price, quantity, action, instrument_type, created_at, updated_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Symbol,
			&tx.Price,
			&tx.Quantity,
			&tx.Action,
			&tx.InstrumentType,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	return transactions, nil
}
