package models

import (
	"time"

	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

// Holding represents a symbol-keyed position: share count plus the cumulative
// cost basis of the currently-held shares
type Holding struct {
	Symbol         string               `json:"symbol"`
	Shares         int64                `json:"shares"`
	InstrumentType types.InstrumentType `json:"instrumentType"`
	TotalCost      decimal.Decimal      `json:"totalCost"`
}

// AvgCost returns the average cost per share, rounded to 2 decimals.
// Zero shares yields zero.
func (h *Holding) AvgCost() decimal.Decimal {
	if h.Shares <= 0 {
		return decimal.Zero
	}
	return h.TotalCost.Div(decimal.NewFromInt(h.Shares)).Round(2)
}

// Portfolio represents the accounting state for a single user: cash balance,
// cumulative deposits and the set of open holdings (unique by symbol).
// Money amounts are decimals; floats appear only at the valuation output boundary.
type Portfolio struct {
	UserID       int64           `json:"userId" db:"user_id"`
	CashBalance  decimal.Decimal `json:"cashBalance" db:"cash_balance"`
	TotalMoneyIn decimal.Decimal `json:"totalMoneyIn" db:"total_money_in"`
	Holdings     []Holding       `json:"holdings" db:"holdings"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// NewPortfolio creates an empty portfolio for a user
func NewPortfolio(userID int64, now time.Time) *Portfolio {
	return &Portfolio{
		UserID:       userID,
		CashBalance:  decimal.Zero,
		TotalMoneyIn: decimal.Zero,
		Holdings:     []Holding{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy of the portfolio. The transaction processor
// operates on copies so a failed apply never leaves a caller with a
// half-mutated snapshot.
func (p *Portfolio) Clone() *Portfolio {
	cp := *p
	cp.Holdings = make([]Holding, len(p.Holdings))
	copy(cp.Holdings, p.Holdings)
	return &cp
}

// FindHolding returns the index of the holding with the given symbol, or -1
func (p *Portfolio) FindHolding(symbol string) int {
	for i := range p.Holdings {
		if p.Holdings[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// RemoveHolding deletes the holding at index i, preserving order of the rest
func (p *Portfolio) RemoveHolding(i int) {
	p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
}

// ValidHoldings returns the holdings with a positive share count
func (p *Portfolio) ValidHoldings() []Holding {
	valid := make([]Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		if h.Shares > 0 {
			valid = append(valid, h)
		}
	}
	return valid
}
