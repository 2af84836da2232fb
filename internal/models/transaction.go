package models

import (
	"time"

	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

// Transaction represents a single portfolio transaction: a buy, a sell or a
// cash transfer. It is validated at the transport boundary before any state
// is touched.
type Transaction struct {
	ID             string               `json:"id" db:"id"`
	UserID         int64                `json:"userId" db:"user_id"`
	Symbol         string               `json:"symbol" db:"symbol"`
	Price          decimal.Decimal      `json:"price" db:"price"`
	Quantity       int64                `json:"quantity" db:"quantity"`
	Action         types.ActionType     `json:"action" db:"action"`
	InstrumentType types.InstrumentType `json:"instrumentType" db:"instrument_type"`
	CreatedAt      time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time            `json:"updatedAt" db:"updated_at"`
}

// Amount returns price * quantity
func (t *Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// Validate checks the transaction fields independently of portfolio state.
// A transfer does not reference a holding, so its symbol may be empty;
// buys and sells require one.
func (t *Transaction) Validate() error {
	if t.UserID <= 0 {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "userId must be greater than 0",
		}
	}
	if !t.Action.Valid() {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "action must be BUY, SELL or TRANSFER",
		}
	}
	if !t.InstrumentType.Valid() {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "instrumentType must be STOCK or ETF",
		}
	}
	if t.Symbol == "" && t.Action != types.ActionTransfer {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "symbol must be a non-empty string",
		}
	}
	if t.Price.LessThanOrEqual(decimal.Zero) {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "price must be greater than 0",
		}
	}
	if t.Quantity <= 0 {
		return &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: "quantity must be greater than 0",
		}
	}
	return nil
}
