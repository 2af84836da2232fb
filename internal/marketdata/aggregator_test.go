package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	quotes map[string]Quote
	err    error
	calls  int
}

func (s *stubProvider) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func fptr(f float64) *float64 { return &f }

func TestPrices_EmptyInputSkipsProvider(t *testing.T) {
	provider := &stubProvider{}
	aggregator := NewPriceAggregator(provider)

	prices := aggregator.Prices(context.Background(), nil)

	assert.Empty(t, prices)
	assert.Zero(t, provider.calls, "provider must not be contacted for an empty batch")
}

func TestPrices_StockAndETFUseDifferentFields(t *testing.T) {
	provider := &stubProvider{quotes: map[string]Quote{
		"AAPL": {Symbol: "AAPL", RegularMarketPrice: fptr(187.5), NavPrice: fptr(1)},
		"VOO":  {Symbol: "VOO", RegularMarketPrice: fptr(1), NavPrice: fptr(412.25)},
	}}
	aggregator := NewPriceAggregator(provider)

	prices := aggregator.Prices(context.Background(), []SymbolRequest{
		{Symbol: "AAPL", InstrumentType: types.InstrumentStock},
		{Symbol: "VOO", InstrumentType: types.InstrumentETF},
	})

	require.Len(t, prices, 2)
	assert.True(t, prices["AAPL"].Equal(decimal.NewFromFloat(187.5)))
	assert.True(t, prices["VOO"].Equal(decimal.NewFromFloat(412.25)))
	assert.Equal(t, 1, provider.calls, "one batched call for the whole request")
}

func TestPrices_ProviderErrorDegradesToZero(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	aggregator := NewPriceAggregator(provider)

	prices := aggregator.Prices(context.Background(), []SymbolRequest{
		{Symbol: "AAPL", InstrumentType: types.InstrumentStock},
		{Symbol: "VOO", InstrumentType: types.InstrumentETF},
	})

	require.Len(t, prices, 2)
	assert.True(t, prices["AAPL"].IsZero())
	assert.True(t, prices["VOO"].IsZero())
}

func TestPrices_MissingSymbolDefaultsToZero(t *testing.T) {
	provider := &stubProvider{quotes: map[string]Quote{
		"AAPL": {Symbol: "AAPL", RegularMarketPrice: fptr(100)},
	}}
	aggregator := NewPriceAggregator(provider)

	prices := aggregator.Prices(context.Background(), []SymbolRequest{
		{Symbol: "AAPL", InstrumentType: types.InstrumentStock},
		{Symbol: "GONE", InstrumentType: types.InstrumentStock},
	})

	assert.True(t, prices["AAPL"].Equal(decimal.NewFromInt(100)))
	assert.True(t, prices["GONE"].IsZero())
}

func TestPrices_MissingFieldDefaultsToZero(t *testing.T) {
	// The symbol is quoted but the field the instrument type needs is absent
	provider := &stubProvider{quotes: map[string]Quote{
		"VOO": {Symbol: "VOO", RegularMarketPrice: fptr(412)},
	}}
	aggregator := NewPriceAggregator(provider)

	prices := aggregator.Prices(context.Background(), []SymbolRequest{
		{Symbol: "VOO", InstrumentType: types.InstrumentETF},
	})

	assert.True(t, prices["VOO"].IsZero())
}
