package service

import (
	"context"

	"github.com/portfolio-service/internal/marketdata"
	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// PriceSource resolves last prices for a batch of symbols. Every requested
// symbol is present in the result; unresolvable prices are zero.
type PriceSource interface {
	Prices(ctx context.Context, pairs []marketdata.SymbolRequest) map[string]decimal.Decimal
}

// ValuationService computes portfolio valuations against live prices. Every
// call works on a freshly fetched portfolio snapshot; nothing is cached
// between requests.
type ValuationService struct {
	portfolioRepo PortfolioRepository
	prices        PriceSource
}

// NewValuationService creates a new valuation service
func NewValuationService(portfolioRepo PortfolioRepository, prices PriceSource) *ValuationService {
	return &ValuationService{
		portfolioRepo: portfolioRepo,
		prices:        prices,
	}
}

// Valuation computes the total portfolio value, gain and ROI for a user.
// A user with no portfolio, or one that has never had a deposit, gets an
// all-zero result.
func (s *ValuationService) Valuation(ctx context.Context, userID int64) (*models.ValuationResult, error) {
	portfolio, err := s.portfolioRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil || portfolio.TotalMoneyIn.IsZero() {
		return models.ZeroValuation(userID), nil
	}

	holdings := portfolio.ValidHoldings()
	totalValue := s.totalValue(ctx, portfolio, holdings)

	gain := totalValue.Sub(portfolio.TotalMoneyIn)
	roi := gain.Div(portfolio.TotalMoneyIn).Mul(oneHundred).Round(2)

	return &models.ValuationResult{
		UserID:              userID,
		TotalPortfolioValue: totalValue,
		TotalGain:           gain,
		ROIPercent:          roi,
	}, nil
}

// Breakdown computes the per-holding valuation share for a user, grouped by
// instrument type plus a synthetic cash entry. A user with no portfolio, no
// deposits or no open holdings gets the three groups empty.
func (s *ValuationService) Breakdown(ctx context.Context, userID int64) (*models.HoldingBreakdown, error) {
	breakdown := models.NewHoldingBreakdown()

	portfolio, err := s.portfolioRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil || portfolio.TotalMoneyIn.IsZero() {
		return breakdown, nil
	}

	holdings := portfolio.ValidHoldings()
	if len(holdings) == 0 {
		return breakdown, nil
	}

	prices := s.fetchPrices(ctx, holdings)
	totalValue := portfolio.CashBalance
	for _, h := range holdings {
		totalValue = totalValue.Add(prices[h.Symbol].Mul(decimal.NewFromInt(h.Shares)))
	}

	for _, h := range holdings {
		price := prices[h.Symbol]
		holdingValue := price.Mul(decimal.NewFromInt(h.Shares))

		entry := models.BreakdownEntry{
			Symbol:     h.Symbol,
			Quantity:   h.Shares,
			Price:      price,
			AvgCost:    h.AvgCost(),
			Percentage: percentageOf(holdingValue, totalValue),
		}

		switch h.InstrumentType {
		case types.InstrumentETF:
			breakdown.ETFs = append(breakdown.ETFs, entry)
		default:
			breakdown.Stocks = append(breakdown.Stocks, entry)
		}
	}

	breakdown.Cash = append(breakdown.Cash, models.BreakdownEntry{
		Symbol:     "CASH",
		Quantity:   1,
		Price:      portfolio.CashBalance,
		AvgCost:    decimal.Zero,
		Percentage: percentageOf(portfolio.CashBalance, totalValue),
	})

	return breakdown, nil
}

// totalValue prices the open holdings and adds the cash balance. Holdings
// whose price could not be resolved contribute zero.
func (s *ValuationService) totalValue(ctx context.Context, portfolio *models.Portfolio, holdings []models.Holding) decimal.Decimal {
	total := portfolio.CashBalance
	if len(holdings) == 0 {
		return total
	}

	prices := s.fetchPrices(ctx, holdings)
	for _, h := range holdings {
		total = total.Add(prices[h.Symbol].Mul(decimal.NewFromInt(h.Shares)))
	}
	return total
}

func (s *ValuationService) fetchPrices(ctx context.Context, holdings []models.Holding) map[string]decimal.Decimal {
	pairs := make([]marketdata.SymbolRequest, 0, len(holdings))
	for _, h := range holdings {
		pairs = append(pairs, marketdata.SymbolRequest{
			Symbol:         h.Symbol,
			InstrumentType: h.InstrumentType,
		})
	}
	return s.prices.Prices(ctx, pairs)
}

// percentageOf returns part/whole as a percentage, rounding the fraction to
// 2 decimals before scaling to 100. The rounding order is part of the wire
// contract: 0.3333 becomes 33, not 33.33.
func percentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Round(2).Mul(oneHundred)
}
