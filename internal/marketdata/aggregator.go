package marketdata

import (
	"context"

	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

// SymbolRequest pairs a symbol with the instrument type that selects its
// quote field
type SymbolRequest struct {
	Symbol         string
	InstrumentType types.InstrumentType
}

// PriceAggregator resolves last prices for a batch of symbols. It degrades
// per symbol rather than failing: an unreachable provider, a symbol missing
// from the batch response, or a missing price field all default that
// symbol's price to zero.
type PriceAggregator struct {
	provider QuoteProvider
}

// NewPriceAggregator creates a new price aggregator
func NewPriceAggregator(provider QuoteProvider) *PriceAggregator {
	return &PriceAggregator{provider: provider}
}

// Prices returns a symbol -> last price mapping for the requested pairs.
// Every requested symbol is present in the result; unresolvable prices are
// zero. An empty request returns an empty map without contacting the
// provider.
func (a *PriceAggregator) Prices(ctx context.Context, pairs []SymbolRequest) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(pairs))
	if len(pairs) == 0 {
		return prices
	}

	logger := logging.FromContext(ctx)

	symbols := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		symbols = append(symbols, pair.Symbol)
		prices[pair.Symbol] = decimal.Zero
	}

	quotes, err := a.provider.Quotes(ctx, symbols)
	if err != nil {
		// A provider outage never fails a valuation; every symbol stays zero.
		logger.WithError(err).WithField("symbols", symbols).
			Warn("Quote provider unreachable, defaulting batch to zero prices")
		return prices
	}

	for _, pair := range pairs {
		quote, ok := quotes[pair.Symbol]
		if !ok {
			logger.WithField("symbol", pair.Symbol).
				Warn("Symbol missing from quote response, defaulting price to zero")
			continue
		}

		var field *float64
		switch pair.InstrumentType {
		case types.InstrumentETF:
			field = quote.NavPrice
		default:
			field = quote.RegularMarketPrice
		}

		if field == nil {
			logger.WithFields(map[string]interface{}{
				"symbol":     pair.Symbol,
				"instrument": pair.InstrumentType,
			}).Warn("Price field missing from quote, defaulting to zero")
			continue
		}

		prices[pair.Symbol] = decimal.NewFromFloat(*field)
	}

	return prices
}
