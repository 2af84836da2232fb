package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationResult holds the aggregate valuation of a portfolio against live
// prices. ROIPercent is rounded to 2 decimals.
type ValuationResult struct {
	UserID              int64           `json:"userId"`
	TotalPortfolioValue decimal.Decimal `json:"totalPortfolioValue"`
	TotalGain           decimal.Decimal `json:"totalGain"`
	ROIPercent          decimal.Decimal `json:"roiPercent"`
}

// ZeroValuation returns the all-zero result used when a portfolio is absent
// or has no deposits
func ZeroValuation(userID int64) *ValuationResult {
	return &ValuationResult{
		UserID:              userID,
		TotalPortfolioValue: decimal.Zero,
		TotalGain:           decimal.Zero,
		ROIPercent:          decimal.Zero,
	}
}

// BreakdownEntry is one line of the per-holding valuation breakdown.
// Percentage is computed from a 2-decimal-rounded fraction scaled to 100.
type BreakdownEntry struct {
	Symbol     string          `json:"symbol"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	AvgCost    decimal.Decimal `json:"avgCost"`
	Percentage decimal.Decimal `json:"percentage"`
}

// HoldingBreakdown groups breakdown entries by instrument type, plus a
// synthetic CASH group carrying the cash balance as a single entry.
type HoldingBreakdown struct {
	Stocks []BreakdownEntry `json:"STOCK"`
	ETFs   []BreakdownEntry `json:"ETF"`
	Cash   []BreakdownEntry `json:"CASH"`
}

// NewHoldingBreakdown returns a breakdown with all three groups empty
func NewHoldingBreakdown() *HoldingBreakdown {
	return &HoldingBreakdown{
		Stocks: []BreakdownEntry{},
		ETFs:   []BreakdownEntry{},
		Cash:   []BreakdownEntry{},
	}
}

// PortfolioSnapshot is one stored daily valuation of a user's portfolio,
// keyed (user, date) with upsert semantics
type PortfolioSnapshot struct {
	UserID         int64             `json:"userId" db:"user_id"`
	SnapshotDate   time.Time         `json:"snapshotDate" db:"snapshot_date"`
	PortfolioValue decimal.Decimal   `json:"portfolioValue" db:"portfolio_value"`
	CashBalance    decimal.Decimal   `json:"cashBalance" db:"cash_balance"`
	CashIn         decimal.Decimal   `json:"cashIn" db:"cash_in"`
	HoldingsValue  decimal.Decimal   `json:"holdingsValue" db:"holdings_value"`
	Breakdown      *HoldingBreakdown `json:"breakdown" db:"breakdown"`
	Gain           decimal.Decimal   `json:"gain" db:"gain"`
	ROI            decimal.Decimal   `json:"roi" db:"roi"`
	CreatedAt      time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time         `json:"updatedAt" db:"updated_at"`
}
